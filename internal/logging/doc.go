// Package logging assembles structured slog loggers used across vidstats.
//
// It owns the console and JSON handlers, level and output plumbing, and
// context-aware helpers so reconciliation code automatically tags log lines
// with the sync run and video being processed. NewNop provides a silent
// logger for tests and optional wiring.
package logging
