// Package storage provides the durable key-value store the session is
// mirrored to between runs.
//
// Backends:
//   - file: a single JSON object on disk (default, ~/.backoffice/storage.json)
//   - memory: process-local, for tests and ephemeral sessions
//   - redis: shared across machines via go-redis
//   - sqlite: a kv table in a local SQLite database
//
// All backends are safe for concurrent use.
package storage
