package topics

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// Renderer formats topic content; format is the topic file's extension
type Renderer interface {
	Render(content string, format string) string
}

// PlainRenderer returns content unchanged
type PlainRenderer struct{}

// Render implements Renderer
func (r *PlainRenderer) Render(content string, format string) string {
	return content
}

// GlamourRenderer renders markdown topics with glamour
type GlamourRenderer struct {
	Style string // "dark", "light", "notty", "auto", or a path to a style file
	Width int    // word-wrap width, 0 keeps glamour's default

	once sync.Once
	term *glamour.TermRenderer
	err  error
}

// NewGlamourRenderer creates a markdown renderer that follows the terminal theme
func NewGlamourRenderer() *GlamourRenderer {
	return &GlamourRenderer{Style: "auto"}
}

func (r *GlamourRenderer) renderer() (*glamour.TermRenderer, error) {
	r.once.Do(func() {
		var options []glamour.TermRendererOption
		switch r.Style {
		case "", "auto":
			options = append(options, glamour.WithAutoStyle())
		case "dark", "light", "notty":
			options = append(options, glamour.WithStandardStyle(r.Style))
		default:
			options = append(options, glamour.WithStylePath(r.Style))
		}
		if r.Width > 0 {
			options = append(options, glamour.WithWordWrap(r.Width))
		}
		r.term, r.err = glamour.NewTermRenderer(options...)
	})
	return r.term, r.err
}

// Render formats markdown content, leaving other formats and failures as plain text
func (r *GlamourRenderer) Render(content string, format string) string {
	if format != ".md" {
		return content
	}

	term, err := r.renderer()
	if err != nil {
		return content
	}

	rendered, err := term.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
