// Package handler exposes the diagram over HTTP.
//
// Every handler works against the server-side stage: pointer gestures,
// selection, viewport, and simulation control all mutate authoritative
// state here, and clients learn the outcome through the event stream
// rather than by tracking state themselves. Mutating endpoints return
// the affected record (or nothing) while /api/events carries the
// resulting scene frames.
//
// Errors come back as JSON with a stable shape:
//
//	{"error": "Failed to delete node", "details": "node \"x\": not found"}
//
// Domain failures map onto conventional status codes: missing records
// are 404, duplicate ids 409, integrity violations 400.
package handler
