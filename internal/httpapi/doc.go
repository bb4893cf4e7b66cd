// Package httpapi serves the stored snapshot over HTTP: entity listings under
// /videos/, monthly views CSV exports, the past-two-months report, and the
// upstream JSON export passthrough. Requests need a bearer token when
// api.token is configured.
package httpapi
