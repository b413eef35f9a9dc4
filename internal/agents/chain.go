package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/biodoia/contentforge/internal/providers"
	"github.com/rs/zerolog/log"
)

// ChainStep rappresenta uno step nella chain
type ChainStep struct {
	// Nome dello step
	Name string

	// Agente da utilizzare
	Agent Agent

	// Template del prompt per questo step; %s viene sostituito con
	// l'output dello step precedente (o l'input iniziale per il primo)
	PromptTemplate string

	// Richiede output JSON strutturato
	JSONOutput bool

	// Timeout per lo step (0 = nessun timeout)
	Timeout time.Duration

	// Numero massimo di tentativi (0 = un solo tentativo)
	MaxRetries int

	// Metadata
	Metadata map[string]interface{}
}

// Chain rappresenta una catena sequenziale di agenti: l'output di ogni
// step diventa input per il successivo.
type Chain struct {
	// Steps della chain
	Steps []*ChainStep

	// Modello da utilizzare per tutti gli step
	model string

	// Risultati intermedi per nome di step
	intermediateResults map[string]*TaskResult
}

// ChainResult rappresenta il risultato finale di una chain
type ChainResult struct {
	// Risultato finale (ultimo step)
	FinalResult *TaskResult

	// Risultati intermedi di ogni step
	IntermediateResults map[string]*TaskResult

	// Usage aggregato di tutti gli step
	TotalUsage providers.Usage

	// Metadata della chain
	Metadata map[string]interface{}
}

// NewChain crea una nuova Chain sequenziale
func NewChain(model string) *Chain {
	return &Chain{
		Steps:               []*ChainStep{},
		model:               model,
		intermediateResults: make(map[string]*TaskResult),
	}
}

// AddStep aggiunge uno step alla chain
func (c *Chain) AddStep(step *ChainStep) {
	c.Steps = append(c.Steps, step)
}

// Execute esegue gli step in sequenza contro il provider dato
func (c *Chain) Execute(ctx context.Context, initialInput string, provider providers.Provider) (*ChainResult, error) {
	if len(c.Steps) == 0 {
		return nil, fmt.Errorf("chain has no steps")
	}

	currentInput := initialInput
	var totalUsage providers.Usage

	for i, step := range c.Steps {
		result, err := c.executeStep(ctx, i, step, currentInput, provider)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s) failed: %w", i, step.Name, err)
		}

		c.intermediateResults[step.Name] = result
		totalUsage.Add(result.Usage)

		// L'output diventa input per il prossimo step
		currentInput = result.Content
	}

	lastStep := c.Steps[len(c.Steps)-1]
	finalResult := c.intermediateResults[lastStep.Name]

	return &ChainResult{
		FinalResult:         finalResult,
		IntermediateResults: c.intermediateResults,
		TotalUsage:          totalUsage,
		Metadata: map[string]interface{}{
			"steps_count": len(c.Steps),
			"model":       c.model,
		},
	}, nil
}

// executeStep esegue un singolo step con timeout e retry
func (c *Chain) executeStep(ctx context.Context, index int, step *ChainStep, input string, provider providers.Provider) (*TaskResult, error) {
	startTime := time.Now()

	log.Debug().
		Str("step", step.Name).
		Str("role", string(step.Agent.Role())).
		Msg("Executing chain step")

	if step.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, step.Timeout)
		defer cancel()
	}

	prompt := c.preparePrompt(step, input)

	task := &Task{
		Role:  step.Agent.Role(),
		Model: c.model,
		Messages: []providers.Message{
			{Role: "user", Content: prompt},
		},
		JSONOutput: step.JSONOutput,
		Metadata: map[string]interface{}{
			"step_name":  step.Name,
			"step_index": index,
		},
	}

	maxAttempts := step.MaxRetries + 1

	var result *TaskResult
	var err error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			log.Warn().
				Str("step", step.Name).
				Int("attempt", attempt+1).
				Err(err).
				Msg("Retrying chain step")

			// Backoff lineare
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		result, err = step.Agent.Execute(ctx, task, provider)
		if err == nil {
			break
		}
	}

	if err != nil {
		return nil, fmt.Errorf("step failed after %d attempts: %w", maxAttempts, err)
	}

	result.Duration = time.Since(startTime)

	log.Debug().
		Str("step", step.Name).
		Dur("duration", result.Duration).
		Int("tokens", result.Usage.TotalTokens).
		Msg("Chain step completed")

	return result, nil
}

// preparePrompt prepara il prompt per uno step
func (c *Chain) preparePrompt(step *ChainStep, input string) string {
	if step.PromptTemplate != "" {
		return fmt.Sprintf(step.PromptTemplate, input)
	}
	return input
}

// ChainBuilder helper per costruire chains facilmente
type ChainBuilder struct {
	chain *Chain
}

// NewChainBuilder crea un nuovo ChainBuilder
func NewChainBuilder(model string) *ChainBuilder {
	return &ChainBuilder{
		chain: NewChain(model),
	}
}

// WithStep aggiunge uno step alla chain
func (cb *ChainBuilder) WithStep(step *ChainStep) *ChainBuilder {
	cb.chain.AddStep(step)
	return cb
}

// Build costruisce la chain
func (cb *ChainBuilder) Build() *Chain {
	return cb.chain
}
