package anki

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// FieldRenderer converts Markdown card text into the HTML Anki stores in
// note fields. It is stateless and safe to share across cards.
type FieldRenderer struct {
	engine goldmark.Markdown
}

// NewFieldRenderer builds a renderer tuned for note-taking Markdown: GFM
// tables and strikethrough, bare URL autolinking, task lists, and hard line
// breaks so multi-line answers keep their line structure on the card.
func NewFieldRenderer() *FieldRenderer {
	return &FieldRenderer{
		engine: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Linkify,
				extension.TaskList,
			),
			goldmark.WithRendererOptions(
				html.WithHardWraps(),
				html.WithUnsafe(),
			),
		),
	}
}

// Render converts one field's Markdown to HTML.
func (r *FieldRenderer) Render(text string) (string, error) {
	var buf bytes.Buffer
	if err := r.engine.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("failed to render field: %w", err)
	}
	return buf.String(), nil
}
