package agents

import (
	"time"

	"github.com/biodoia/contentforge/internal/providers"
)

// Role rappresenta il ruolo di un agente nella pipeline editoriale
type Role string

const (
	RoleResearcher Role = "researcher"
	RoleWriter     Role = "writer"
	RoleEditor     Role = "editor"
)

// Task rappresenta un task da eseguire
type Task struct {
	// Ruolo dell'agente che deve eseguire il task
	Role Role

	// Modello da utilizzare
	Model string

	// Messaggi della conversazione
	Messages []providers.Message

	// Parametri (override dei default dell'agente)
	Temperature *float64
	MaxTokens   *int

	// Richiede output JSON strutturato
	JSONOutput bool

	// Metadata
	Metadata map[string]interface{}
}

// TaskResult rappresenta il risultato di un task
type TaskResult struct {
	// Ruolo dell'agente che ha eseguito il task
	Role Role

	// Contenuto della risposta
	Content string

	// Modello utilizzato
	Model string

	// Usage statistics
	Usage providers.Usage

	// Durata dell'esecuzione (retry inclusi)
	Duration time.Duration

	// Metadata
	Metadata map[string]interface{}
}
