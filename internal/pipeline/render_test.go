package pipeline

import (
	"strings"
	"testing"
)

func TestParseBlogPost(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantOK    bool
		wantTitle string
	}{
		{
			name:      "valid json",
			raw:       `{"title":"Go Basics","introduction":"intro","content":"body","conclusion":"end","keywords":["go","basics"]}`,
			wantOK:    true,
			wantTitle: "Go Basics",
		},
		{
			name:      "json wrapped in code fence",
			raw:       "```json\n{\"title\":\"Fenced\",\"content\":\"body\"}\n```",
			wantOK:    true,
			wantTitle: "Fenced",
		},
		{
			name:      "bare code fence",
			raw:       "```\n{\"title\":\"Bare\",\"content\":\"body\"}\n```",
			wantOK:    true,
			wantTitle: "Bare",
		},
		{
			name:   "plain text",
			raw:    "This is just a blog post written as prose.",
			wantOK: false,
		},
		{
			name:   "valid json without title or content",
			raw:    `{"introduction":"only intro"}`,
			wantOK: false,
		},
		{
			name:   "empty input",
			raw:    "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post, ok := ParseBlogPost(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("ParseBlogPost() ok = %v, want %v", ok, tt.wantOK)
			}
			if !tt.wantOK {
				return
			}
			if post.Title != tt.wantTitle {
				t.Errorf("Expected title %q, got %q", tt.wantTitle, post.Title)
			}
		})
	}
}

func TestBlogPostMarkdown(t *testing.T) {
	post := &BlogPost{
		Title:        "Understanding Channels",
		Introduction: "Channels are Go's way of communicating between goroutines.",
		Content:      "The main body goes here.",
		Conclusion:   "Use channels wisely.",
		Keywords:     []string{"go", "channels", "concurrency"},
	}

	md := post.Markdown()

	if !strings.HasPrefix(md, "# Understanding Channels\n") {
		t.Errorf("Markdown does not start with title header:\n%s", md)
	}
	if !strings.Contains(md, "## Conclusion") {
		t.Errorf("Markdown missing conclusion section:\n%s", md)
	}
	if !strings.Contains(md, "*Keywords: go, channels, concurrency*") {
		t.Errorf("Markdown missing keywords line:\n%s", md)
	}
}

func TestBlogPostMarkdownPartial(t *testing.T) {
	post := &BlogPost{Content: "Only a body."}

	md := post.Markdown()

	if strings.Contains(md, "#") {
		t.Errorf("Markdown should have no headers without title/conclusion:\n%s", md)
	}
	if !strings.Contains(md, "Only a body.") {
		t.Errorf("Markdown missing body:\n%s", md)
	}
}
