// Package filesystem provides the types.FS implementations used by dotman.
//
// NewOS is the production filesystem. NewAferoFS adapts any afero backend;
// NewMemory gives the in-memory MemMapFs used by tests that do not need
// symbolic links (the manifest store, copy helpers).
package filesystem
