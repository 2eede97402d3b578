// Package policy provides policy override sources.
//
// Implementations:
//   - redis: a Redis hash, editable with HSET or through the HTTP API
//   - memory: In-memory, used when Redis is disabled and in tests
package policy
