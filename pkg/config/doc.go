// Package config loads dotman's settings and edits the user config file.
//
// Settings are layered, later layers overriding earlier ones:
//   - embedded defaults (embedded/defaults.toml)
//   - the user file, $XDG_CONFIG_HOME/dotman/config.toml
//   - DOTMAN_* environment variables (DOTMAN_LINK_CASE_SENSITIVE=true sets
//     link.case_sensitive)
//
// Store.Set only ever writes the user file.
package config
