// Package testutil provides helpers shared by dotman's package tests.
//
// Key components:
//   - TestEnvironment: an isolated home directory with a repository inside it,
//     HOME and the XDG variables pointed at temp dirs, and wired Paths,
//     manifest Store and link Reconciler
//   - FakeBackend: an in-memory vcs.Backend that records calls and fails on demand
//   - FakeRemoteBackend: FakeBackend plus vcs.RemoteComparer
//
// Symlinks need a real filesystem, so environments live under t.TempDir().
package testutil
