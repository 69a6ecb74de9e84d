package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/arthur-debert/dotman/pkg/vcs"
)

// FakeBackend is a vcs.Backend that records every call.
type FakeBackend struct {
	mu         sync.Mutex
	calls      []string
	commits    []string
	errs       map[string]error
	statusText string

	// CloneFiles are written below the clone path when Clone succeeds,
	// keyed by slash separated relative path.
	CloneFiles map[string]string
}

var _ vcs.Backend = (*FakeBackend)(nil)

// NewFakeBackend creates a FakeBackend that succeeds at everything.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		errs:       make(map[string]error),
		CloneFiles: make(map[string]string),
	}
}

// FailOn makes the named method ("Commit", "Pull", ...) return err.
// A nil err clears the failure.
func (f *FakeBackend) FailOn(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, method)
		return
	}
	f.errs[method] = err
}

// SetStatus sets the text Status returns.
func (f *FakeBackend) SetStatus(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusText = text
}

// Calls returns the methods invoked so far, e.g. "Commit(Track new file: .vimrc)".
func (f *FakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Commits returns the messages of successful commits.
func (f *FakeBackend) Commits() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commits...)
}

func (f *FakeBackend) record(method, arg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if arg != "" {
		f.calls = append(f.calls, fmt.Sprintf("%s(%s)", method, arg))
	} else {
		f.calls = append(f.calls, method)
	}
	return f.errs[method]
}

func (f *FakeBackend) Init(ctx context.Context) error {
	return f.record("Init", "")
}

func (f *FakeBackend) Clone(ctx context.Context, url, path string) error {
	if err := f.record("Clone", url); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(path, 0755); err != nil {
		return err
	}
	for rel, content := range f.CloneFiles {
		target := filepath.Join(path, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(target, []byte(content), 0644); err != nil {
			return err
		}
	}
	return nil
}

func (f *FakeBackend) Commit(ctx context.Context, message string) error {
	if err := f.record("Commit", message); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits = append(f.commits, message)
	return nil
}

func (f *FakeBackend) Pull(ctx context.Context) error {
	return f.record("Pull", "")
}

func (f *FakeBackend) Push(ctx context.Context) error {
	return f.record("Push", "")
}

func (f *FakeBackend) Status(ctx context.Context) (string, error) {
	if err := f.record("Status", ""); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusText, nil
}

// FakeRemoteBackend adds vcs.RemoteComparer to FakeBackend.
type FakeRemoteBackend struct {
	*FakeBackend
	Ahead  int
	Behind int
}

var _ vcs.RemoteComparer = (*FakeRemoteBackend)(nil)

// NewFakeRemoteBackend creates a FakeRemoteBackend reporting the given counts.
func NewFakeRemoteBackend(ahead, behind int) *FakeRemoteBackend {
	return &FakeRemoteBackend{FakeBackend: NewFakeBackend(), Ahead: ahead, Behind: behind}
}

func (f *FakeRemoteBackend) Divergence(ctx context.Context) (int, int, error) {
	if err := f.record("Divergence", ""); err != nil {
		return 0, 0, err
	}
	return f.Ahead, f.Behind, nil
}
