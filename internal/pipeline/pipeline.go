package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/biodoia/contentforge/internal/agents"
	"github.com/biodoia/contentforge/internal/providers"
	"github.com/biodoia/contentforge/internal/search"
	"github.com/biodoia/contentforge/pkg/config"
	"github.com/rs/zerolog/log"
)

// Prompt templates per gli step della chain; %s è l'input dello step.
const (
	researchPromptTemplate = "Research the following blog topic and produce a research brief:\n\n%s"

	writePromptTemplate = "Using the research brief below, write the blog post draft:\n\n%s"

	editPromptTemplate = "Edit the following draft and return the final blog post as JSON " +
		"(fields: title, introduction, content, conclusion, keywords):\n\n%s"
)

// Runner è l'interfaccia della pipeline vista dal layer HTTP
type Runner interface {
	Run(ctx context.Context, topic string) (*Result, error)
	Describe() []StageInfo
}

// Result rappresenta il risultato finale della pipeline
type Result struct {
	// Contenuto finale in markdown (o testo grezzo dell'editor)
	Content string

	// Post strutturato, nil se l'editor non ha prodotto JSON valido
	Post *BlogPost

	// Modello e provider utilizzati
	Model    string
	Provider string

	// Usage aggregato di tutti gli stage
	Usage providers.Usage

	// Durata totale
	Duration time.Duration

	// Output intermedi per stage
	StageOutputs map[string]string
}

// Keywords restituisce le keywords del post, se presenti
func (r *Result) Keywords() []string {
	if r.Post == nil {
		return nil
	}
	return r.Post.Keywords
}

// StageInfo descrive uno stage configurato (per introspection via API)
type StageInfo struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Agent string `json:"agent"`
	Goal  string `json:"goal"`
}

// BlogPipeline esegue la pipeline researcher → writer → editor
type BlogPipeline struct {
	provider   providers.Provider
	searchTool search.Tool // nil se la ricerca è disabilitata
	cfg        *config.Config
	metrics    *Metrics

	researcher *agents.ResearcherAgent
	writer     *agents.WriterAgent
	editor     *agents.EditorAgent
}

// New crea una nuova BlogPipeline
func New(cfg *config.Config, provider providers.Provider, searchTool search.Tool, metrics *Metrics) *BlogPipeline {
	return &BlogPipeline{
		provider:   provider,
		searchTool: searchTool,
		cfg:        cfg,
		metrics:    metrics,
		researcher: agents.NewResearcherAgent(),
		writer:     agents.NewWriterAgent(),
		editor:     agents.NewEditorAgent(),
	}
}

// Run esegue la pipeline completa per un topic
func (p *BlogPipeline) Run(ctx context.Context, topic string) (*Result, error) {
	startTime := time.Now()

	log.Info().
		Str("topic", topic).
		Str("provider", p.provider.Name()).
		Str("model", p.cfg.LLM.Model).
		Msg("Executing blog pipeline")

	input := p.buildResearchInput(ctx, topic)

	chain := p.buildChain()

	chainResult, err := chain.Execute(ctx, input, p.provider)
	if err != nil {
		p.metrics.RecordFailure()
		return nil, fmt.Errorf("pipeline execution failed: %w", err)
	}

	result := p.assembleResult(topic, chainResult)
	result.Duration = time.Since(startTime)

	p.recordMetrics(chainResult, result.Duration)

	log.Info().
		Str("topic", topic).
		Dur("duration", result.Duration).
		Int("total_tokens", result.Usage.TotalTokens).
		Bool("structured", result.Post != nil).
		Msg("Pipeline executed successfully")

	return result, nil
}

// Describe restituisce la descrizione degli stage configurati
func (p *BlogPipeline) Describe() []StageInfo {
	return []StageInfo{
		{Name: "research", Role: string(p.researcher.Role()), Agent: p.researcher.Name(), Goal: "research brief on the topic"},
		{Name: "write", Role: string(p.writer.Role()), Agent: p.writer.Name(), Goal: "blog post draft from the brief"},
		{Name: "edit", Role: string(p.editor.Role()), Agent: p.editor.Name(), Goal: "polished post as structured JSON"},
	}
}

// buildResearchInput arricchisce il topic con i risultati di ricerca web.
// Un errore del tool di ricerca non blocca la pipeline.
func (p *BlogPipeline) buildResearchInput(ctx context.Context, topic string) string {
	if p.searchTool == nil {
		return topic
	}

	results, err := p.searchTool.Search(ctx, topic)
	if err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("Web search failed, continuing without it")
		return topic
	}

	formatted := search.FormatResults(results)
	if formatted == "" {
		return topic
	}

	return fmt.Sprintf("%s\n\n%s", topic, formatted)
}

// buildChain assembla la chain sequenziale researcher → writer → editor
func (p *BlogPipeline) buildChain() *agents.Chain {
	stageTimeout := p.cfg.Pipeline.StageTimeout
	maxRetries := p.cfg.Pipeline.MaxRetries

	return agents.NewChainBuilder(p.cfg.LLM.Model).
		WithStep(&agents.ChainStep{
			Name:           "research",
			Agent:          p.researcher,
			PromptTemplate: researchPromptTemplate,
			Timeout:        stageTimeout,
			MaxRetries:     maxRetries,
		}).
		WithStep(&agents.ChainStep{
			Name:           "write",
			Agent:          p.writer,
			PromptTemplate: p.writerPrompt(),
			Timeout:        stageTimeout,
			MaxRetries:     maxRetries,
		}).
		WithStep(&agents.ChainStep{
			Name:           "edit",
			Agent:          p.editor,
			PromptTemplate: editPromptTemplate,
			JSONOutput:     true,
			Timeout:        stageTimeout,
			MaxRetries:     maxRetries,
		}).
		Build()
}

// writerPrompt estende il template del writer con la lunghezza target
func (p *BlogPipeline) writerPrompt() string {
	if p.cfg.Pipeline.WriterWords <= 0 {
		return writePromptTemplate
	}
	return fmt.Sprintf("Aim for roughly %d words. ", p.cfg.Pipeline.WriterWords) + writePromptTemplate
}

// assembleResult coercizza l'output della chain nel risultato finale
func (p *BlogPipeline) assembleResult(topic string, chainResult *agents.ChainResult) *Result {
	raw := chainResult.FinalResult.Content

	result := &Result{
		Model:        chainResult.FinalResult.Model,
		Provider:     p.provider.Name(),
		Usage:        chainResult.TotalUsage,
		StageOutputs: make(map[string]string, len(chainResult.IntermediateResults)),
	}

	for name, r := range chainResult.IntermediateResults {
		result.StageOutputs[name] = r.Content
	}

	// Se l'editor ha rispettato lo schema, rendi il post in markdown;
	// altrimenti usa il testo così com'è.
	if post, ok := ParseBlogPost(raw); ok {
		result.Post = post
		result.Content = post.Markdown()
	} else {
		log.Warn().Str("topic", topic).Msg("Editor output is not structured, using raw text")
		result.Content = strings.TrimSpace(raw)
	}

	return result
}

// recordMetrics registra le metriche degli stage e della pipeline
func (p *BlogPipeline) recordMetrics(chainResult *agents.ChainResult, duration time.Duration) {
	p.metrics.RecordSuccess(duration)
	for name, r := range chainResult.IntermediateResults {
		p.metrics.RecordStage(name, r.Duration, r.Usage.TotalTokens)
	}
}
