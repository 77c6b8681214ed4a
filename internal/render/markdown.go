// Package render converts post markup between its source and rendered
// forms. It is the content-rendering collaborator consumed by the mutation
// pipeline and by draft previews.
package render

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

type Markdown struct {
	md    goldmark.Markdown
	strip *bluemonday.Policy
}

func NewMarkdown() *Markdown {
	return &Markdown{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
		strip: bluemonday.StrictPolicy(),
	}
}

// Render converts markdown source to HTML.
func (m *Markdown) Render(source string) (string, error) {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}

	return buf.String(), nil
}

// InnerText strips all tags from rendered HTML, leaving the readable text.
// Used to build the search index and to count words for reading time.
func (m *Markdown) InnerText(renderedHTML string) string {
	text := m.strip.Sanitize(renderedHTML)
	return strings.TrimSpace(html.UnescapeString(text))
}

// WordCount counts the words in the readable text of rendered HTML.
func (m *Markdown) WordCount(renderedHTML string) int {
	return len(strings.Fields(m.InnerText(renderedHTML)))
}
