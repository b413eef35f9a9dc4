package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BlogPost è lo schema strutturato richiesto all'editor.
// Esiste per dare forma all'output del modello, non per imporre
// invarianti lato server: se il parsing fallisce si usa il testo grezzo.
type BlogPost struct {
	Title        string   `json:"title"`
	Introduction string   `json:"introduction"`
	Content      string   `json:"content"`
	Conclusion   string   `json:"conclusion"`
	Keywords     []string `json:"keywords"`
}

// ParseBlogPost prova a interpretare l'output dell'editor come BlogPost.
// Restituisce (nil, false) se il testo non è JSON valido per lo schema.
func ParseBlogPost(raw string) (*BlogPost, bool) {
	cleaned := stripCodeFence(strings.TrimSpace(raw))

	var post BlogPost
	if err := json.Unmarshal([]byte(cleaned), &post); err != nil {
		return nil, false
	}

	// Un JSON valido senza titolo né body non è un blog post utilizzabile
	if post.Title == "" && post.Content == "" {
		return nil, false
	}

	return &post, true
}

// Markdown rende il post in markdown
func (p *BlogPost) Markdown() string {
	var sb strings.Builder

	if p.Title != "" {
		sb.WriteString(fmt.Sprintf("# %s\n\n", p.Title))
	}
	if p.Introduction != "" {
		sb.WriteString(p.Introduction)
		sb.WriteString("\n\n")
	}
	if p.Content != "" {
		sb.WriteString(p.Content)
		sb.WriteString("\n\n")
	}
	if p.Conclusion != "" {
		sb.WriteString(fmt.Sprintf("## Conclusion\n\n%s\n", p.Conclusion))
	}
	if len(p.Keywords) > 0 {
		sb.WriteString(fmt.Sprintf("\n*Keywords: %s*\n", strings.Join(p.Keywords, ", ")))
	}

	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// stripCodeFence rimuove un eventuale blocco ```json ... ``` attorno al testo
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
