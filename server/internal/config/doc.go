// Package config loads the todos-server configuration from the `server:`
// section of a YAML file.
//
// Config fields:
//   - HTTPPort                  — port for the REST API, /metrics and /ws/todos (default 8000)
//   - LogLevel                  — debug|info|warn|error (default info), hot-reloadable
//   - CORS.AllowedOrigins       — browser origins allowed to call the API (default http://localhost:3000)
//   - Pagination.DefaultLimit   — page size when the client omits ?limit (default 10)
//   - Stream.Interval           — WebSocket snapshot broadcast interval (default 5s)
//   - Webhooks                  — change-event delivery targets
//
// Load(path) applies defaults before unmarshalling, then validates.
// Watch(ctx, path, fn) reloads the file whenever it changes on disk.
package config
