// Package linker reconciles one manifest entry with the home directory.
//
// A Reconciler inspects the object at an entry's home path, classifies it as
// one of the LinkStates and, when needed, replaces it with a symbolic link into
// the repository. Anything already present at the home path is renamed to a
// sibling "<name>.dotman-backup" before the link is created, and renamed back
// if linking fails.
//
// The reconciler is stateless: it never reads or writes the manifest.
package linker
