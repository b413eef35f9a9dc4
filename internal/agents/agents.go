package agents

import (
	"context"
	"fmt"

	"github.com/biodoia/contentforge/internal/providers"
)

// Agent rappresenta un agente con un ruolo, un goal e parametri di sampling
type Agent interface {
	// Role restituisce il ruolo dell'agente
	Role() Role

	// Name restituisce il nome dell'agente
	Name() string

	// SystemPrompt restituisce il prompt di sistema (persona + goal)
	SystemPrompt() string

	// Execute esegue il task utilizzando il provider specificato
	Execute(ctx context.Context, task *Task, provider providers.Provider) (*TaskResult, error)
}

// BaseAgent fornisce funzionalità comuni per tutti gli agenti
type BaseAgent struct {
	role        Role
	name        string
	goal        string
	backstory   string
	temperature float64
	maxTokens   int
}

// Role restituisce il ruolo dell'agente
func (a *BaseAgent) Role() Role {
	return a.role
}

// Name restituisce il nome dell'agente
func (a *BaseAgent) Name() string {
	return a.name
}

// SystemPrompt compone persona e goal in un prompt di sistema
func (a *BaseAgent) SystemPrompt() string {
	return fmt.Sprintf("You are %s. %s\nYour goal: %s", a.name, a.backstory, a.goal)
}

// Execute esegue il task con i parametri di sampling dell'agente
func (a *BaseAgent) Execute(ctx context.Context, task *Task, provider providers.Provider) (*TaskResult, error) {
	messages := make([]providers.Message, 0, len(task.Messages)+1)
	messages = append(messages, providers.Message{
		Role:    "system",
		Content: a.SystemPrompt(),
	})
	messages = append(messages, task.Messages...)

	req := &providers.ChatRequest{
		Model:       task.Model,
		Messages:    messages,
		Temperature: providers.Float64Ptr(a.temperature),
		MaxTokens:   providers.IntPtr(a.maxTokens),
	}

	// Override dal task, se presenti
	if task.Temperature != nil {
		req.Temperature = task.Temperature
	}
	if task.MaxTokens != nil {
		req.MaxTokens = task.MaxTokens
	}
	if task.JSONOutput {
		req.ResponseFormat = &providers.ResponseFormat{Type: "json_object"}
	}

	resp, err := provider.ChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s task failed: %w", a.role, err)
	}

	content := resp.FirstContent()
	if content == "" {
		return nil, fmt.Errorf("%s task returned empty response", a.role)
	}

	return &TaskResult{
		Role:    a.Role(),
		Content: content,
		Model:   resp.Model,
		Usage:   resp.Usage,
		Metadata: map[string]interface{}{
			"agent": a.Name(),
		},
	}, nil
}

// ResearcherAgent - Raccoglie fatti e contesto sul topic
type ResearcherAgent struct {
	BaseAgent
}

// NewResearcherAgent crea un nuovo ResearcherAgent
func NewResearcherAgent() *ResearcherAgent {
	return &ResearcherAgent{
		BaseAgent: BaseAgent{
			role:      RoleResearcher,
			name:      "Senior Content Researcher",
			backstory: "You are an experienced researcher who digs up accurate, relevant and up-to-date facts on any topic.",
			goal: "Produce a concise research brief on the given topic: key facts, " +
				"recent developments, notable perspectives and interesting angles. " +
				"Cite sources when available. Output a structured bullet list.",
			temperature: 0.3, // Bassa temperatura per fatti accurati
			maxTokens:   2048,
		},
	}
}

// WriterAgent - Scrive la bozza del blog post
type WriterAgent struct {
	BaseAgent
}

// NewWriterAgent crea un nuovo WriterAgent
func NewWriterAgent() *WriterAgent {
	return &WriterAgent{
		BaseAgent: BaseAgent{
			role:      RoleWriter,
			name:      "Tech Content Writer",
			backstory: "You are a skilled blog writer who turns research notes into engaging, well-structured long-form content.",
			goal: "Write an engaging blog post based on the research brief: " +
				"a compelling title, an introduction that hooks the reader, " +
				"a substantive main body and a conclusion with a takeaway.",
			temperature: 0.8, // Alta temperatura per più creatività
			maxTokens:   4096,
		},
	}
}

// EditorAgent - Rifinisce la bozza e produce l'output strutturato
type EditorAgent struct {
	BaseAgent
}

// NewEditorAgent crea un nuovo EditorAgent
func NewEditorAgent() *EditorAgent {
	return &EditorAgent{
		BaseAgent: BaseAgent{
			role:      RoleEditor,
			name:      "Senior Content Editor",
			backstory: "You are a meticulous editor who polishes drafts for clarity, flow and correctness.",
			goal: "Edit the draft for clarity, grammar and flow, then return the final post " +
				"as a JSON object with the fields: title, introduction, content, conclusion " +
				"and keywords (an array of 3-8 SEO keyword strings). Return only the JSON object.",
			temperature: 0.4,
			maxTokens:   4096,
		},
	}
}
