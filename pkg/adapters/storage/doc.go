// Package storage provides workflow status storage implementations.
//
// Implementations:
//   - redis: Redis with JSON serialization and TTL
//   - memory: In-memory, used when Redis is disabled and in tests
//
// Statuses are an observability snapshot. Nothing reads them back to
// resume work after a restart.
package storage
