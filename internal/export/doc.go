// Package export renders the stored snapshot as downloadable files: monthly
// views CSVs (UTF-8 with a byte order mark), the past-two-months comparison,
// and the upstream JSON export passthrough.
package export
