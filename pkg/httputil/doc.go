// Package httputil provides HTTP server helpers for the picgraph API.
//
// # Overview
//
//   - [WriteJSON] and [WriteError]: JSON responses, with error codes from
//     [github.com/matzehuels/picgraph/pkg/errors] mapped to HTTP status
//   - [DecodeJSON]: size-limited request body decoding
//   - [RequestLogger]: chi middleware that logs each request with
//     charmbracelet/log and reports it to the observability HTTP hooks
//
// Error bodies have the shape:
//
//	{"error": {"code": "SCENE_CYCLE", "message": "cycle through picture \"a\""}}
package httputil
