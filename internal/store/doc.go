// Package store persists the analytics snapshot in SQLite.
//
// Every entity is addressed by its natural key (upstream video id, the
// (video, interaction_id) pair, and so on) and written with
// INSERT ... ON CONFLICT DO UPDATE so repeated syncs converge on one row per
// key. Get methods return nil for absent rows; merging with existing values is
// the caller's job. List methods back the read-side HTTP API and CLI.
//
// The schema is embedded and versioned in schema.go. The snapshot can always
// be rebuilt by syncing, so a version bump is handled by deleting the file.
package store
