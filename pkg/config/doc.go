// Package config loads snaplink settings from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/snaplink/config.toml (falling back to
// ~/.config). Anything the file leaves out keeps its [Default] value, and
// unknown keys are an error so typos do not pass silently:
//
//	[workspace]
//	snap_radius = 28
//	connecting_snap_radius = 48
//
//	[log]
//	level = "debug"
//
//	[events.redis]
//	addr = "localhost:6379"
package config
