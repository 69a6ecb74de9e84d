// Package display holds the view model every renderer consumes.
//
// Commands convert their domain results into a Result, which the terminal,
// text and JSON renderers then present. Keeping the view model separate
// lets the JSON output stay stable while terminal formatting changes.
package display

import (
	"sort"
	"time"
)

// Item statuses shared by all commands
const (
	StatusTracked         = "tracked"
	StatusUntracked       = "untracked"
	StatusLinked          = "linked"
	StatusSkipped         = "skipped"
	StatusFailed          = "failed"
	StatusUnrecoverable   = "unrecoverable"
	StatusUnlinked        = "unlinked"
	StatusLinkedElsewhere = "linked-elsewhere"
	StatusMissing         = "missing"
)

// Result is the top-level structure rendered for a command
type Result struct {
	Command   string    `json:"command"`
	Message   string    `json:"message,omitempty"`
	Items     []Item    `json:"items"`
	Warnings  []string  `json:"warnings,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	// Unrecoverable entries have their original content stranded at a
	// backup path and need manual attention.
	Unrecoverable []Unrecoverable `json:"unrecoverable,omitempty"`

	Repository *Repository `json:"repository,omitempty"`
}

// Item is one tracked file in a result
type Item struct {
	Key    string `json:"key"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Unrecoverable describes a file whose original could not be restored
type Unrecoverable struct {
	Key    string `json:"key"`
	Backup string `json:"backup"`
	Error  string `json:"error"`
}

// Repository summarises the working tree and its remote
type Repository struct {
	Path     string   `json:"path"`
	Clean    bool     `json:"clean"`
	Changes  []string `json:"changes,omitempty"`
	Compared bool     `json:"compared"`
	Ahead    int      `json:"ahead"`
	Behind   int      `json:"behind"`
	Note     string   `json:"note,omitempty"`
}

// NewResult creates an empty result for command
func NewResult(command string) *Result {
	return &Result{
		Command:   command,
		Items:     []Item{},
		Timestamp: time.Now(),
	}
}

// Add appends an item
func (r *Result) Add(key, status, detail string) {
	r.Items = append(r.Items, Item{Key: key, Status: status, Detail: detail})
}

// Warn appends a warning line
func (r *Result) Warn(warning string) {
	r.Warnings = append(r.Warnings, warning)
}

// SortItems orders items by key
func (r *Result) SortItems() {
	sort.SliceStable(r.Items, func(i, j int) bool {
		return r.Items[i].Key < r.Items[j].Key
	})
}

// Count returns how many items carry status
func (r *Result) Count(status string) int {
	n := 0
	for _, item := range r.Items {
		if item.Status == status {
			n++
		}
	}
	return n
}

// HasFailures reports whether any item failed
func (r *Result) HasFailures() bool {
	return len(r.Unrecoverable) > 0 || r.Count(StatusFailed) > 0
}

// Synced reports whether the repository has no local changes and matches
// its remote. Without a comparison only the working tree counts.
func (r *Repository) Synced() bool {
	if !r.Clean {
		return false
	}
	return !r.Compared || (r.Ahead == 0 && r.Behind == 0)
}
