// Package text provides plain text output without any styling
package text

import (
	"fmt"
	"io"

	"github.com/arthur-debert/dotman/pkg/errors"
	"github.com/arthur-debert/dotman/pkg/ui/display"
)

// Renderer provides plain text output without colors or styling
type Renderer struct {
	output io.Writer
}

// New creates a new text renderer
func New(output io.Writer) (*Renderer, error) {
	return &Renderer{output: output}, nil
}

// RenderResult renders a result as plain text
func (r *Renderer) RenderResult(result interface{}) error {
	switch v := result.(type) {
	case *display.Result:
		return r.render(v)
	case fmt.Stringer:
		return r.RenderMessage(v.String())
	default:
		_, err := fmt.Fprintf(r.output, "%+v\n", result)
		return err
	}
}

func (r *Renderer) render(res *display.Result) error {
	w := &errWriter{w: r.output}

	if res.Message != "" {
		w.printf("%s\n", res.Message)
		if len(res.Items) > 0 {
			w.printf("\n")
		}
	}
	for _, item := range res.Items {
		if item.Detail != "" {
			w.printf("  %-18s%s  %s\n", item.Status, item.Key, item.Detail)
		} else {
			w.printf("  %-18s%s\n", item.Status, item.Key)
		}
	}
	for _, warning := range res.Warnings {
		w.printf("warning: %s\n", warning)
	}
	if len(res.Unrecoverable) > 0 {
		w.printf("\nUNRECOVERABLE: manual attention needed\n")
		for _, u := range res.Unrecoverable {
			w.printf("  %s  %s\n", u.Key, u.Error)
			w.printf("  original content now at %s\n", u.Backup)
		}
	}
	if repo := res.Repository; repo != nil {
		state := "synced"
		if !repo.Synced() {
			state = "out of sync"
		}
		w.printf("\nRepository %s\n  %s\n", repo.Path, state)
		if repo.Compared && (repo.Ahead > 0 || repo.Behind > 0) {
			w.printf("  %d ahead, %d behind remote\n", repo.Ahead, repo.Behind)
		}
		for _, change := range repo.Changes {
			w.printf("  %s\n", change)
		}
		if repo.Note != "" {
			w.printf("  %s\n", repo.Note)
		}
	}
	return w.err
}

// RenderError renders an error as plain text
func (r *Renderer) RenderError(err error) error {
	prefix := "Error"
	if errors.HasErrorCode(err, errors.ErrLinkUnrecoverable) {
		prefix = "UNRECOVERABLE"
	}
	_, err2 := fmt.Fprintf(r.output, "%s: %v\n", prefix, err)
	return err2
}

// RenderMessage renders a simple message
func (r *Renderer) RenderMessage(msg string) error {
	_, err := fmt.Fprintln(r.output, msg)
	return err
}

// errWriter keeps the first write error so rendering reads top to bottom
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
