// Package ingest runs the synchronization job: it takes the sync lock,
// walks the upstream video listing, fans videos out to a bounded worker
// pool of reconcilers, and records the run outcome in the store.
package ingest
