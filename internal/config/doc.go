// Package config loads, normalizes, and validates vidstats configuration.
//
// Configuration lives in a TOML file (by default ~/.config/vidstats/config.toml,
// falling back to ./vidstats.toml). Missing values are filled from Default,
// paths are expanded, and secrets fall back to environment variables; a .env
// file in the working directory is honoured for API_KEY. Call Validate after
// manual edits and RequireUpstream before talking to the analytics API.
package config
