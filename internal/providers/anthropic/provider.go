package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/biodoia/contentforge/internal/providers"
	"github.com/rs/zerolog/log"
)

// Provider adatta il client Anthropic all'interfaccia providers.Provider
type Provider struct {
	client *Client
	config ProviderConfig
}

// ProviderConfig contiene la configurazione del provider
type ProviderConfig struct {
	APIKey     string
	BaseURL    string
	APIVersion string
	Timeout    time.Duration
	UserAgent  string
}

// NewProvider crea un nuovo provider Anthropic
func NewProvider(config ProviderConfig) *Provider {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.APIVersion == "" {
		config.APIVersion = DefaultAPIVersion
	}
	if config.Timeout == 0 {
		config.Timeout = 120 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "ContentForge/1.0"
	}

	client := NewClient(
		config.APIKey,
		WithBaseURL(config.BaseURL),
		WithAPIVersion(config.APIVersion),
		WithUserAgent(config.UserAgent),
		WithHTTPClient(&http.Client{Timeout: config.Timeout}),
	)

	return &Provider{
		client: client,
		config: config,
	}
}

// Name restituisce il nome del provider
func (p *Provider) Name() string {
	return "anthropic"
}

// ChatCompletion esegue una richiesta di chat completion generica
func (p *Provider) ChatCompletion(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResponse, error) {
	anthropicReq, err := convertRequest(req)
	if err != nil {
		return nil, fmt.Errorf("failed to convert request: %w", err)
	}

	log.Debug().
		Str("model", anthropicReq.Model).
		Int("max_tokens", anthropicReq.MaxTokens).
		Int("messages", len(anthropicReq.Messages)).
		Msg("Sending request to Anthropic")

	resp, err := p.client.CreateMessage(ctx, anthropicReq)
	if err != nil {
		return nil, err
	}

	return convertResponse(resp), nil
}

// HealthCheck verifica la salute dell'API con una richiesta minima
func (p *Provider) HealthCheck(ctx context.Context) error {
	req := &MessagesRequest{
		Model:     "claude-3-5-haiku-latest",
		MaxTokens: 10,
		Messages: []Message{
			{
				Role:    MessageRoleUser,
				Content: []ContentBlock{NewTextContentBlock("Hi")},
			},
		},
	}

	_, err := p.client.CreateMessage(ctx, req)
	return err
}

// convertRequest converte la richiesta generica in formato Anthropic.
// I messaggi system vanno nel campo dedicato, non nella lista messages.
// La Messages API non ha un equivalente di response_format: il vincolo
// JSON resta a livello di prompt e ResponseFormat non viene mappato.
func convertRequest(req *providers.ChatRequest) (*MessagesRequest, error) {
	anthropicReq := &MessagesRequest{
		Model:         req.Model,
		MaxTokens:     DefaultMaxTokens,
		Temperature:   req.Temperature,
		TopP:          req.TopP,
		StopSequences: req.Stop,
	}

	if req.MaxTokens != nil {
		anthropicReq.MaxTokens = *req.MaxTokens
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case "system":
			if anthropicReq.System != "" {
				anthropicReq.System += "\n\n"
			}
			anthropicReq.System += msg.Content
		case "user":
			anthropicReq.Messages = append(anthropicReq.Messages, Message{
				Role:    MessageRoleUser,
				Content: []ContentBlock{NewTextContentBlock(msg.Content)},
			})
		case "assistant":
			anthropicReq.Messages = append(anthropicReq.Messages, Message{
				Role:    MessageRoleAssistant,
				Content: []ContentBlock{NewTextContentBlock(msg.Content)},
			})
		default:
			return nil, fmt.Errorf("unsupported message role: %s", msg.Role)
		}
	}

	return anthropicReq, nil
}

// convertResponse converte la risposta Anthropic in formato generico
func convertResponse(resp *MessagesResponse) *providers.ChatResponse {
	finishReason := "stop"
	if resp.StopReason == StopReasonMaxTokens {
		finishReason = "length"
	}

	return &providers.ChatResponse{
		ID:      resp.ID,
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   resp.Model,
		Choices: []providers.Choice{
			{
				Index: 0,
				Message: providers.Message{
					Role:    "assistant",
					Content: resp.TextContent(),
				},
				FinishReason: finishReason,
			},
		},
		Usage: providers.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}
}
