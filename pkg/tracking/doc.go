// Package tracking moves files into and out of the dotfiles repository.
//
// Track copies a file under home into the repository, replaces the original
// with a link to the copy, records the entry in the manifest and commits.
// The manifest is written only after the link exists, so a failure at any
// earlier step is rolled back to the state before the call: the original file
// in place, no repository copy, no manifest entry.
//
// Untrack reverses Track. It refuses to touch a home path that holds a
// regular file, since that file is not dotman's to overwrite.
package tracking
