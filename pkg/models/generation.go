package models

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MaxContentLength è il limite di caratteri applicato al contenuto
// prima del salvataggio nel database.
const MaxContentLength = 10000

// SaveStatus indica l'esito del salvataggio di una generazione
type SaveStatus string

const (
	SaveStatusSaved  SaveStatus = "saved"
	SaveStatusFailed SaveStatus = "failed"
	SaveStatusCached SaveStatus = "cached"
)

// Generation rappresenta un blog post generato dalla pipeline
type Generation struct {
	ID    uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Topic string    `json:"topic" gorm:"not null;index"`

	// Contenuto finale (markdown), troncato a MaxContentLength
	Content string `json:"content" gorm:"not null"`

	// Keywords estratte dall'editor (JSON array di stringhe)
	Keywords datatypes.JSON `json:"keywords" gorm:"type:jsonb"`

	// Provenance
	Model    string `json:"model"`
	Provider string `json:"provider"`

	// Usage statistics della pipeline
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	DurationMs int64 `json:"duration_ms"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook per generare UUID
func (g *Generation) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// TruncateContent applica il limite di lunghezza al contenuto.
// Il limite è in caratteri: il taglio non deve mai spezzare una rune.
func (g *Generation) TruncateContent() {
	if utf8.RuneCountInString(g.Content) <= MaxContentLength {
		return
	}
	g.Content = string([]rune(g.Content)[:MaxContentLength])
}

// TableName specifica il nome della tabella
func (Generation) TableName() string {
	return "generations"
}
