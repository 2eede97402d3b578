package memory

import (
	"context"
	"sync"
)

// Source implements PolicySource with an in-memory map. It backs the
// policy endpoints when Redis is not configured.
type Source struct {
	overrides map[string]string
	mu        sync.RWMutex
}

// NewSource creates a new in-memory policy source
func NewSource() *Source {
	return &Source{
		overrides: make(map[string]string),
	}
}

// LoadOverrides returns a copy of the stored overrides
func (s *Source) LoadOverrides(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.overrides))
	for k, v := range s.overrides {
		out[k] = v
	}
	return out, nil
}

// SaveOverrides merges overrides into the stored ones
func (s *Source) SaveOverrides(ctx context.Context, overrides map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range overrides {
		s.overrides[k] = v
	}
	return nil
}
