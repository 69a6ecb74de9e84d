// Package manifest holds the durable record of tracked files.
//
// A Manifest maps a logical key (the file's path relative to the home
// directory) to an Entry describing where its content lives in the repository.
// The Store loads and saves the manifest as manifest.json at the repository
// root. Saves are atomic: the file is written next to its final location and
// renamed over it, so a crash never leaves a truncated manifest behind.
//
// Manifest mutations (Add, Remove) are purely in memory; callers persist with
// Store.Save once the filesystem side of an operation has succeeded.
package manifest
