// Package paths provides centralized path handling for dotman.
//
// It owns the two roots every operation works against (the user's home
// directory and the dotfiles repository), the mapping between absolute home
// paths and the home-relative logical keys stored in the manifest, and the
// XDG locations of dotman's own configuration and state.
package paths
