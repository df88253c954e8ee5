// Package config provides configuration structures and utilities for
// the novel harvester. It defines the run options populated from CLI
// flags, the YAML site-rules file with per-host extraction overrides,
// and the XDG directory helpers used for persistent state.
package config
