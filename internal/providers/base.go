package providers

import (
	"context"
	"time"
)

// Provider è l'interfaccia base per tutti i provider LLM
type Provider interface {
	// ChatCompletion esegue una richiesta di chat completion
	ChatCompletion(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Name restituisce il nome del provider
	Name() string

	// HealthCheck verifica lo stato di salute del provider
	HealthCheck(ctx context.Context) error
}

// ChatRequest rappresenta una richiesta generica di chat completion
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
	Stop        []string  `json:"stop,omitempty"`

	// JSON mode
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`

	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ChatResponse rappresenta una risposta generica di chat completion
type ChatResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Message rappresenta un messaggio nella conversazione
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// Choice rappresenta una scelta nella risposta
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage rappresenta le statistiche di utilizzo
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumula usage di più stage
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// ResponseFormat specifica il formato della risposta
type ResponseFormat struct {
	Type string `json:"type"` // "text" o "json_object"
}

// FirstContent restituisce il contenuto della prima choice
func (r *ChatResponse) FirstContent() string {
	if len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

// BaseProvider fornisce funzionalità comuni per i provider
type BaseProvider struct {
	name       string
	baseURL    string
	apiKey     string
	timeout    time.Duration
	maxRetries int
}

// NewBaseProvider crea un nuovo BaseProvider
func NewBaseProvider(name, baseURL, apiKey string) *BaseProvider {
	return &BaseProvider{
		name:       name,
		baseURL:    baseURL,
		apiKey:     apiKey,
		timeout:    120 * time.Second,
		maxRetries: 3,
	}
}

// Name restituisce il nome del provider
func (b *BaseProvider) Name() string {
	return b.name
}

// SetTimeout imposta il timeout delle richieste
func (b *BaseProvider) SetTimeout(timeout time.Duration) {
	b.timeout = timeout
}

// SetMaxRetries imposta il numero massimo di retry
func (b *BaseProvider) SetMaxRetries(retries int) {
	b.maxRetries = retries
}

// GetBaseURL restituisce la base URL
func (b *BaseProvider) GetBaseURL() string {
	return b.baseURL
}

// GetAPIKey restituisce la API key
func (b *BaseProvider) GetAPIKey() string {
	return b.apiKey
}

// GetTimeout restituisce il timeout
func (b *BaseProvider) GetTimeout() time.Duration {
	return b.timeout
}

// GetMaxRetries restituisce il numero massimo di retry
func (b *BaseProvider) GetMaxRetries() int {
	return b.maxRetries
}

// Helper functions
func Float64Ptr(f float64) *float64 {
	return &f
}

func IntPtr(i int) *int {
	return &i
}
