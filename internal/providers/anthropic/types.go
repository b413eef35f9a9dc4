package anthropic

import "fmt"

const (
	// DefaultBaseURL è l'endpoint ufficiale dell'API Anthropic
	DefaultBaseURL = "https://api.anthropic.com"

	// DefaultAPIVersion è la versione API di default
	DefaultAPIVersion = "2023-06-01"

	// DefaultMaxTokens è il limite di output quando non specificato
	DefaultMaxTokens = 4096
)

// MessageRole definisce i ruoli dei messaggi
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// StopReason indica perché il modello ha smesso di generare
type StopReason string

const (
	StopReasonEndTurn      StopReason = "end_turn"
	StopReasonMaxTokens    StopReason = "max_tokens"
	StopReasonStopSequence StopReason = "stop_sequence"
)

// ContentBlockType definisce i tipi di blocco di contenuto
type ContentBlockType string

const (
	ContentBlockTypeText ContentBlockType = "text"
)

// MessagesRequest rappresenta una richiesta all'API Messages
type MessagesRequest struct {
	Model         string    `json:"model"`
	Messages      []Message `json:"messages"`
	MaxTokens     int       `json:"max_tokens"`
	System        string    `json:"system,omitempty"`
	Temperature   *float64  `json:"temperature,omitempty"`
	TopP          *float64  `json:"top_p,omitempty"`
	StopSequences []string  `json:"stop_sequences,omitempty"`
}

// Validate verifica la correttezza della richiesta
func (r *MessagesRequest) Validate() error {
	if r.Model == "" {
		return fmt.Errorf("model is required")
	}
	if len(r.Messages) == 0 {
		return fmt.Errorf("at least one message is required")
	}
	if r.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive")
	}
	return nil
}

// Message rappresenta un messaggio nella conversazione
type Message struct {
	Role    MessageRole    `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ContentBlock è un blocco di contenuto testuale
type ContentBlock struct {
	Type ContentBlockType `json:"type"`
	Text string           `json:"text,omitempty"`
}

// NewTextContentBlock crea un blocco di testo
func NewTextContentBlock(text string) ContentBlock {
	return ContentBlock{
		Type: ContentBlockTypeText,
		Text: text,
	}
}

// MessagesResponse rappresenta la risposta dall'API Messages
type MessagesResponse struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"` // "message"
	Role         MessageRole    `json:"role"`
	Content      []ContentBlock `json:"content"`
	Model        string         `json:"model"`
	StopReason   StopReason     `json:"stop_reason,omitempty"`
	StopSequence string         `json:"stop_sequence,omitempty"`
	Usage        Usage          `json:"usage"`
}

// TextContent concatena tutti i blocchi di testo della risposta
func (r *MessagesResponse) TextContent() string {
	var text string
	for _, block := range r.Content {
		if block.Type == ContentBlockTypeText {
			text += block.Text
		}
	}
	return text
}

// Usage contiene informazioni sull'utilizzo dei token
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ErrorResponse rappresenta una risposta di errore dell'API
type ErrorResponse struct {
	Type  string   `json:"type"` // "error"
	Error APIError `json:"error"`
}

// APIError dettaglio dell'errore Anthropic
type APIError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Error implementa l'interfaccia error
func (e *APIError) Error() string {
	return fmt.Sprintf("anthropic API error (%s): %s", e.Type, e.Message)
}
