package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/biodoia/contentforge/internal/providers"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidAPIKey      = errors.New("invalid API key")
	ErrRateLimitExceeded  = errors.New("rate limit exceeded")
	ErrModelNotFound      = errors.New("model not found")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// Client implementa un client OpenAI-compatible
type Client struct {
	*providers.BaseProvider
	httpClient *resty.Client
}

// NewClient crea un nuovo client OpenAI
func NewClient(name, baseURL, apiKey string) *Client {
	base := providers.NewBaseProvider(name, baseURL, apiKey)

	client := &Client{
		BaseProvider: base,
		httpClient:   resty.New(),
	}

	client.configureHTTPClient()
	return client
}

// configureHTTPClient configura il client HTTP con retry e timeout
func (c *Client) configureHTTPClient() {
	c.httpClient.
		SetBaseURL(c.GetBaseURL()).
		SetTimeout(c.GetTimeout()).
		SetRetryCount(c.GetMaxRetries()).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(10*time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// Retry on 5xx errors and specific 4xx errors
			if r == nil {
				return true
			}
			return r.StatusCode() >= 500 ||
				r.StatusCode() == 429 || // Rate limit
				r.StatusCode() == 408 // Request timeout
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	if c.GetAPIKey() != "" {
		c.httpClient.SetHeader("Authorization", "Bearer "+c.GetAPIKey())
	}

	c.httpClient.OnBeforeRequest(func(client *resty.Client, req *resty.Request) error {
		log.Debug().
			Str("provider", c.Name()).
			Str("method", req.Method).
			Str("url", req.URL).
			Msg("OpenAI API request")
		return nil
	})

	c.httpClient.OnAfterResponse(func(client *resty.Client, resp *resty.Response) error {
		log.Debug().
			Str("provider", c.Name()).
			Int("status", resp.StatusCode()).
			Dur("duration", resp.Time()).
			Msg("OpenAI API response")
		return nil
	})
}

// ChatCompletion esegue una richiesta di chat completion
func (c *Client) ChatCompletion(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResponse, error) {
	openaiReq := c.convertToOpenAIRequest(req)

	var openaiResp ChatCompletionResponse
	var errResp ErrorResponse

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(openaiReq).
		SetResult(&openaiResp).
		SetError(&errResp).
		Post("/v1/chat/completions")

	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.IsError() {
		return nil, c.handleErrorResponse(resp.StatusCode(), &errResp)
	}

	return c.convertFromOpenAIResponse(&openaiResp), nil
}

// HealthCheck verifica la raggiungibilità del provider
func (c *Client) HealthCheck(ctx context.Context) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get("/v1/models")

	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if resp.StatusCode() == 401 {
		return ErrInvalidAPIKey
	}
	if resp.StatusCode() >= 500 {
		return ErrServiceUnavailable
	}

	return nil
}

// convertToOpenAIRequest converte la richiesta generica in formato OpenAI
func (c *Client) convertToOpenAIRequest(req *providers.ChatRequest) *ChatCompletionRequest {
	messages := make([]ChatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, ChatMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	openaiReq := &ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		MaxTokens:   req.MaxTokens,
		Stop:        req.Stop,
	}

	if req.ResponseFormat != nil {
		openaiReq.ResponseFormat = &ResponseFormat{Type: req.ResponseFormat.Type}
	}

	return openaiReq
}

// convertFromOpenAIResponse converte la risposta OpenAI in formato generico
func (c *Client) convertFromOpenAIResponse(resp *ChatCompletionResponse) *providers.ChatResponse {
	choices := make([]providers.Choice, 0, len(resp.Choices))
	for _, ch := range resp.Choices {
		choices = append(choices, providers.Choice{
			Index: ch.Index,
			Message: providers.Message{
				Role:    ch.Message.Role,
				Content: ch.Message.Content,
			},
			FinishReason: ch.FinishReason,
		})
	}

	return &providers.ChatResponse{
		ID:      resp.ID,
		Object:  resp.Object,
		Created: resp.Created,
		Model:   resp.Model,
		Choices: choices,
		Usage: providers.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
}

// handleErrorResponse mappa gli errori HTTP su errori tipizzati
func (c *Client) handleErrorResponse(statusCode int, errResp *ErrorResponse) error {
	message := errResp.Error.Message
	if message == "" {
		message = "unknown error"
	}

	switch statusCode {
	case 401:
		return fmt.Errorf("%w: %s", ErrInvalidAPIKey, message)
	case 404:
		return fmt.Errorf("%w: %s", ErrModelNotFound, message)
	case 429:
		return fmt.Errorf("%w: %s", ErrRateLimitExceeded, message)
	case 400, 422:
		return fmt.Errorf("%w: %s", ErrInvalidRequest, message)
	default:
		if statusCode >= 500 {
			return fmt.Errorf("%w: %s", ErrServiceUnavailable, message)
		}
		return fmt.Errorf("HTTP %d: %s", statusCode, message)
	}
}
