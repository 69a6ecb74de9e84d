// Package types defines the interfaces shared across dotman's packages.
// The filesystem surface lives here so that the manifest store, the link
// reconciler and the tracking engine can be exercised against real or
// in-memory filesystems.
package types
