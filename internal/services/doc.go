// Package services defines small shared utilities used by the sync job, the
// reconciler, and the HTTP surface.
//
// It provides context helpers that stamp run IDs, video IDs, and correlation
// identifiers for logging, plus structured error markers and the Wrap helper
// so failures can be classified consistently in logs and run summaries.
package services
