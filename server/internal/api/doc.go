// Package api implements the HTTP REST API for todos-server.
//
// New(store, opts) returns an http.Handler that serves:
//
//	GET    /health        — liveness probe
//	GET    /todos         — page of todos (?page=1&limit=10)
//	POST   /todos         — create; 409 if the title is taken
//	GET    /todos/{id}    — single todo; 404 if unknown
//	PATCH  /todos/{id}    — partial update; 404 if unknown
//	DELETE /todos/{id}    — delete; 204 on success
//	GET    /metrics       — Prometheus text exposition (when Options.Metrics is set)
//	GET    /ws/todos      — live stream (when Options.Stream is set)
//
// Successful responses use {"status":"success", ...}; failures use
// {"status":"fail","message":...}. An {id} that is not a UUID is rejected
// with 400 before the store is consulted.
//
// Every request passes through the CORS policy and is logged with slog.
package api
