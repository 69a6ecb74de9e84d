// Package terminal provides rich terminal output with colors and styling
package terminal

import (
	"fmt"
	"io"
	"strings"

	"github.com/arthur-debert/dotman/pkg/errors"
	"github.com/arthur-debert/dotman/pkg/ui/display"
	"github.com/arthur-debert/dotman/pkg/ui/styles"
)

// Renderer writes styled output
type Renderer struct {
	output io.Writer
}

// New creates a new terminal renderer
func New(w io.Writer) (*Renderer, error) {
	return &Renderer{output: w}, nil
}

// RenderResult renders a result with terminal styling
func (r *Renderer) RenderResult(result interface{}) error {
	switch v := result.(type) {
	case *display.Result:
		return r.renderResult(v)
	case fmt.Stringer:
		return r.RenderMessage(v.String())
	default:
		_, err := fmt.Fprintf(r.output, "%+v\n", result)
		return err
	}
}

func (r *Renderer) renderResult(res *display.Result) error {
	var b strings.Builder

	if res.Message != "" {
		b.WriteString(styles.GetStyle("Info").Render(res.Message))
		b.WriteString("\n")
		if len(res.Items) > 0 {
			b.WriteString("\n")
		}
	}

	statusStyle := styles.GetStyle("Status")
	for _, item := range res.Items {
		status := styles.ForStatus(item.Status).Inherit(statusStyle).Render(item.Status)
		line := status + styles.GetStyle("Key").Render(item.Key)
		if item.Detail != "" {
			line += "  " + styles.GetStyle("Muted").Render(item.Detail)
		}
		b.WriteString(styles.GetStyle("Indent").Render(line))
		b.WriteString("\n")
	}

	for _, w := range res.Warnings {
		b.WriteString(styles.GetStyle("Warning").Render("! " + w))
		b.WriteString("\n")
	}

	if len(res.Unrecoverable) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.GetStyle("Unrecoverable").Render("UNRECOVERABLE: manual attention needed"))
		b.WriteString("\n")
		for _, u := range res.Unrecoverable {
			b.WriteString(styles.GetStyle("Indent").Render(
				styles.GetStyle("Key").Render(u.Key) + "  " + styles.GetStyle("Error").Render(u.Error)))
			b.WriteString("\n")
			b.WriteString(styles.GetStyle("Indent").Render(
				"original content now at " + styles.GetStyle("FilePath").Render(u.Backup)))
			b.WriteString("\n")
		}
	}

	if res.Repository != nil {
		b.WriteString("\n")
		b.WriteString(r.repository(res.Repository))
	}

	_, err := io.WriteString(r.output, b.String())
	return err
}

func (r *Renderer) repository(repo *display.Repository) string {
	var b strings.Builder
	b.WriteString(styles.GetStyle("SubHeader").Render("Repository") + " " +
		styles.GetStyle("FilePath").Render(repo.Path) + "\n")

	state := styles.GetStyle("Success").Render("synced")
	if !repo.Synced() {
		state = styles.GetStyle("Warning").Render("out of sync")
	}
	b.WriteString(styles.GetStyle("Indent").Render(state) + "\n")

	if repo.Compared && (repo.Ahead > 0 || repo.Behind > 0) {
		b.WriteString(styles.GetStyle("Indent").Render(
			fmt.Sprintf("%d ahead, %d behind remote", repo.Ahead, repo.Behind)) + "\n")
	}
	for _, change := range repo.Changes {
		b.WriteString(styles.GetStyle("Indent").Render(styles.GetStyle("Muted").Render(change)) + "\n")
	}
	if repo.Note != "" {
		b.WriteString(styles.GetStyle("Indent").Render(styles.GetStyle("Muted").Render(repo.Note)) + "\n")
	}
	return b.String()
}

// RenderError renders an error, highlighting unrecoverable failures
func (r *Renderer) RenderError(err error) error {
	var line string
	if errors.HasErrorCode(err, errors.ErrLinkUnrecoverable) {
		line = styles.GetStyle("Unrecoverable").Render("UNRECOVERABLE") + " " + err.Error()
	} else {
		line = styles.GetStyle("Error").Render("Error:") + " " + err.Error()
	}
	_, werr := fmt.Fprintln(r.output, line)
	return werr
}

// RenderMessage renders a simple message
func (r *Renderer) RenderMessage(msg string) error {
	_, err := fmt.Fprintln(r.output, msg)
	return err
}
