package optimizer

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/LISSConsulting/LISSTech.Reforge/internal/source"
)

// DefaultPrompt asks for a rewrite and nothing else.
const DefaultPrompt = "Optimize this {{.Language}} code professionally. Return ONLY code:\n\n{{.Source}}"

// PromptData is what a prompt template can reference.
type PromptData struct {
	Language string // upper-case label, e.g. PYTHON
	File     string
	Source   string
}

// ParsePrompt compiles a prompt template. Unknown fields are an error.
func ParsePrompt(text string) (*template.Template, error) {
	if text == "" {
		text = DefaultPrompt
	}
	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("optimizer: parse prompt: %w", err)
	}
	// Execute once so field typos fail at startup, not mid-batch.
	if err := tmpl.Execute(&bytes.Buffer{}, PromptData{}); err != nil {
		return nil, fmt.Errorf("optimizer: prompt template: %w", err)
	}
	return tmpl, nil
}

func renderPrompt(tmpl *template.Template, t source.Task) (string, error) {
	var buf bytes.Buffer
	err := tmpl.Execute(&buf, PromptData{
		Language: t.Language.Label(),
		File:     t.Name,
		Source:   t.Content,
	})
	if err != nil {
		return "", fmt.Errorf("optimizer: render prompt: %w", err)
	}
	return buf.String(), nil
}
