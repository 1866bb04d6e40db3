// Package server exposes a popcorn store over HTTP.
//
// Routes:
//
//	GET  /              HTML shell carrying the current user handoff
//	GET  /api/state     current state as JSON
//	POST /api/actions   dispatch a JSON action
//	GET  /api/state/ws  WebSocket stream of state snapshots
//	GET  /metrics       Prometheus metrics
//	GET  /healthz       liveness
//
// Anything else is served from the public directory when one is configured.
package server
