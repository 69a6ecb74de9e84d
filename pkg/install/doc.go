// Package install replays the manifest onto a home directory.
//
// Run reconciles every manifest entry and aggregates the outcomes; one failing
// entry never stops the others. Bootstrap clones the repository first when it
// is not present, which is how a fresh machine is set up.
package install
