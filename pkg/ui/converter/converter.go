// Package converter turns engine results into display results.
package converter

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/dotman/pkg/install"
	"github.com/arthur-debert/dotman/pkg/linker"
	"github.com/arthur-debert/dotman/pkg/manifest"
	"github.com/arthur-debert/dotman/pkg/syncer"
	"github.com/arthur-debert/dotman/pkg/tracking"
	"github.com/arthur-debert/dotman/pkg/ui/display"
)

// FromTrack converts the results of tracking one or more files
func FromTrack(results []*tracking.TrackResult) *display.Result {
	out := display.NewResult("add")
	for _, r := range results {
		out.Add(r.Key, display.StatusTracked, r.RepoPath)
		if r.CommitErr != nil {
			out.Warn(fmt.Sprintf("%s is tracked but was not committed: %v", r.Key, r.CommitErr))
		}
	}
	out.Message = countMessage(len(results), "file tracked", "files tracked")
	return out
}

// FromUntrack converts the results of untracking one or more files
func FromUntrack(results []*tracking.UntrackResult) *display.Result {
	out := display.NewResult("remove")
	for _, r := range results {
		out.Add(r.Key, display.StatusUntracked, r.HomePath)
		if r.CommitErr != nil {
			out.Warn(fmt.Sprintf("%s is untracked but the removal was not committed: %v", r.Key, r.CommitErr))
		}
	}
	out.Message = countMessage(len(results), "file untracked", "files untracked")
	return out
}

// FromEntries lists the manifest entries
func FromEntries(entries map[string]manifest.Entry) *display.Result {
	out := display.NewResult("list")
	for key, entry := range entries {
		out.Add(key, display.StatusTracked, entryDetail(key, entry))
	}
	out.SortItems()
	if len(entries) == 0 {
		out.Message = "No files are tracked."
	}
	return out
}

// FromSummary converts an install summary. Unrecoverable outcomes are listed
// separately so they can be shown prominently.
func FromSummary(summary *install.Summary) *display.Result {
	out := display.NewResult("install")
	for _, o := range summary.Outcomes {
		switch {
		case o.Unrecoverable:
			out.Add(o.Key, display.StatusUnrecoverable, errText(o.Err))
			out.Unrecoverable = append(out.Unrecoverable, display.Unrecoverable{
				Key:    o.Key,
				Backup: o.BackupPath,
				Error:  errText(o.Err),
			})
		case o.Failed():
			detail := errText(o.Err)
			if o.PrivilegeRequired {
				detail += " (creating symlinks needs elevated privileges or developer mode)"
			}
			out.Add(o.Key, display.StatusFailed, detail)
		default:
			detail := o.HomePath
			if o.BackupPath != "" && o.Result == linker.Linked {
				detail = fmt.Sprintf("%s (replaced %s)", o.HomePath, o.State)
			}
			out.Add(o.Key, o.Result.String(), detail)
		}
	}
	out.Message = fmt.Sprintf("%d linked, %d already correct, %d failed", summary.Linked, summary.Skipped, summary.Failed)
	return out
}

// FromStatus combines per-file link states with the repository status.
// repo may be nil when no backend is available.
func FromStatus(states []tracking.FileState, repoPath string, repo *syncer.Status) *display.Result {
	out := display.NewResult("status")
	for _, st := range states {
		switch {
		case st.Err != nil:
			out.Add(st.Key, display.StatusFailed, errText(st.Err))
		case !st.RepoPresent:
			out.Add(st.Key, display.StatusMissing, "repository copy missing at "+st.RepoPath)
		default:
			out.Add(st.Key, stateStatus(st.State), st.HomePath)
		}
	}
	if repo != nil {
		out.Repository = FromRepoStatus(repoPath, repo)
	}
	return out
}

// FromRepoStatus converts a sync status
func FromRepoStatus(repoPath string, status *syncer.Status) *display.Repository {
	r := &display.Repository{
		Path:     repoPath,
		Clean:    status.Clean(),
		Compared: status.Compared,
		Ahead:    status.Ahead,
		Behind:   status.Behind,
	}
	if !r.Clean {
		r.Changes = strings.Split(status.Raw, "\n")
	}
	if status.CompareErr != nil {
		r.Note = "remote not compared: " + status.CompareErr.Error()
	}
	return r
}

func stateStatus(state linker.LinkState) string {
	switch state {
	case linker.LinkedCorrect:
		return display.StatusLinked
	case linker.LinkedElsewhere:
		return display.StatusLinkedElsewhere
	case linker.Missing:
		return display.StatusMissing
	default:
		return display.StatusUnlinked
	}
}

func entryDetail(key string, entry manifest.Entry) string {
	var parts []string
	if entry.Source != "" && entry.Source != key {
		parts = append(parts, "source "+entry.Source)
	}
	if entry.Profile != "" && entry.Profile != manifest.DefaultProfile {
		parts = append(parts, "profile "+entry.Profile)
	}
	if entry.IsTemplate {
		parts = append(parts, "template")
	}
	if entry.IsSecret {
		parts = append(parts, "secret")
	}
	return strings.Join(parts, ", ")
}

func countMessage(n int, singular, plural string) string {
	if n == 1 {
		return "1 " + singular
	}
	return fmt.Sprintf("%d %s", n, plural)
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
