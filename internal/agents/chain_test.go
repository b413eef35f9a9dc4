package agents

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/biodoia/contentforge/internal/providers"
)

// MockProvider è un provider di test con risposte scriptate per chiamata
type MockProvider struct {
	name      string
	responses []string
	failures  int // le prime N chiamate falliscono
	calls     int
	requests  []*providers.ChatRequest
}

func (m *MockProvider) ChatCompletion(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResponse, error) {
	m.requests = append(m.requests, req)
	call := m.calls
	m.calls++

	if call < m.failures {
		return nil, errors.New("simulated provider failure")
	}

	response := "default response"
	idx := call - m.failures
	if idx < len(m.responses) {
		response = m.responses[idx]
	}

	return &providers.ChatResponse{
		ID:      "test-" + m.name,
		Model:   req.Model,
		Created: time.Now().Unix(),
		Choices: []providers.Choice{
			{
				Index: 0,
				Message: providers.Message{
					Role:    "assistant",
					Content: response,
				},
				FinishReason: "stop",
			},
		},
		Usage: providers.Usage{
			PromptTokens:     10,
			CompletionTokens: 20,
			TotalTokens:      30,
		},
	}, nil
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) HealthCheck(ctx context.Context) error {
	return nil
}

func TestChainExecuteSequential(t *testing.T) {
	provider := &MockProvider{
		name:      "mock",
		responses: []string{"research brief", "draft post", "final post"},
	}

	chain := NewChainBuilder("test-model").
		WithStep(&ChainStep{
			Name:           "research",
			Agent:          NewResearcherAgent(),
			PromptTemplate: "Research: %s",
		}).
		WithStep(&ChainStep{
			Name:           "write",
			Agent:          NewWriterAgent(),
			PromptTemplate: "Write from: %s",
		}).
		WithStep(&ChainStep{
			Name:  "edit",
			Agent: NewEditorAgent(),
		}).
		Build()

	result, err := chain.Execute(context.Background(), "quantum computing", provider)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if result.FinalResult.Content != "final post" {
		t.Errorf("Expected final content %q, got %q", "final post", result.FinalResult.Content)
	}

	if len(result.IntermediateResults) != 3 {
		t.Errorf("Expected 3 intermediate results, got %d", len(result.IntermediateResults))
	}

	// 30 token per stage
	if result.TotalUsage.TotalTokens != 90 {
		t.Errorf("Expected 90 total tokens, got %d", result.TotalUsage.TotalTokens)
	}

	if len(provider.requests) != 3 {
		t.Fatalf("Expected 3 provider calls, got %d", len(provider.requests))
	}

	// Il primo step riceve il topic nel template
	firstPrompt := lastUserMessage(t, provider.requests[0])
	if firstPrompt != "Research: quantum computing" {
		t.Errorf("Unexpected first prompt: %q", firstPrompt)
	}

	// Ogni step riceve l'output dello step precedente
	secondPrompt := lastUserMessage(t, provider.requests[1])
	if !strings.Contains(secondPrompt, "research brief") {
		t.Errorf("Second step did not receive first step output: %q", secondPrompt)
	}

	thirdPrompt := lastUserMessage(t, provider.requests[2])
	if !strings.Contains(thirdPrompt, "draft post") {
		t.Errorf("Third step did not receive second step output: %q", thirdPrompt)
	}
}

func TestChainStepRetry(t *testing.T) {
	provider := &MockProvider{
		name:      "flaky",
		failures:  2,
		responses: []string{"recovered"},
	}

	chain := NewChainBuilder("test-model").
		WithStep(&ChainStep{
			Name:       "research",
			Agent:      NewResearcherAgent(),
			MaxRetries: 2,
		}).
		Build()

	result, err := chain.Execute(context.Background(), "topic", provider)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if result.FinalResult.Content != "recovered" {
		t.Errorf("Expected recovered content, got %q", result.FinalResult.Content)
	}

	if provider.calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", provider.calls)
	}
}

func TestChainStepRetriesExhausted(t *testing.T) {
	provider := &MockProvider{
		name:     "broken",
		failures: 10,
	}

	chain := NewChainBuilder("test-model").
		WithStep(&ChainStep{
			Name:       "research",
			Agent:      NewResearcherAgent(),
			MaxRetries: 1,
		}).
		Build()

	_, err := chain.Execute(context.Background(), "topic", provider)
	if err == nil {
		t.Fatal("Expected error after exhausted retries, got nil")
	}

	if provider.calls != 2 {
		t.Errorf("Expected 2 attempts, got %d", provider.calls)
	}
}

func TestChainEmptySteps(t *testing.T) {
	chain := NewChain("test-model")

	_, err := chain.Execute(context.Background(), "topic", &MockProvider{name: "mock"})
	if err == nil {
		t.Fatal("Expected error for empty chain, got nil")
	}
}

func lastUserMessage(t *testing.T, req *providers.ChatRequest) string {
	t.Helper()
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			return req.Messages[i].Content
		}
	}
	t.Fatal("No user message in request")
	return ""
}
