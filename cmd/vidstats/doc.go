// Command vidstats mirrors video analytics into a local SQLite snapshot and
// serves it back as lists, CSV exports, and an HTTP API.
//
// Subcommands:
//   - sync: reconcile every upstream video into the store
//   - serve: run the read-only HTTP API over the store
//   - list: print stored rows as tables or JSON
//   - export: write monthly view CSVs or the upstream JSON export
//   - status: show recent sync runs
//   - config: create or validate the configuration file
package main
