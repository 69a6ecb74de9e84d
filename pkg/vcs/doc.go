// Package vcs defines the version-control backend dotman commits tracked
// files through, and provides Git, an adapter that shells out to the git
// binary.
//
// The engine only depends on the Backend interface. Optional capabilities
// (Cloner, RemoteComparer) are discovered with type assertions so test
// doubles can implement as little as they need.
package vcs
