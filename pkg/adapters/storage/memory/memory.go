package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aescanero/dropship/pkg/domain"
)

// InMemoryStatusStorage implements StatusStore using an in-memory map
type InMemoryStatusStorage struct {
	statuses map[string]domain.WorkflowStatus
	mu       sync.RWMutex
}

// NewInMemoryStatusStorage creates a new in-memory status storage
func NewInMemoryStatusStorage() *InMemoryStatusStorage {
	return &InMemoryStatusStorage{
		statuses: make(map[string]domain.WorkflowStatus),
	}
}

// SaveStatus stores a copy of status, replacing the previous one
func (s *InMemoryStatusStorage) SaveStatus(ctx context.Context, status *domain.WorkflowStatus) error {
	if status == nil || status.Workflow == "" {
		return fmt.Errorf("invalid status: workflow name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy to avoid mutations
	s.statuses[status.Workflow] = *status
	return nil
}

// GetStatus retrieves the status of a workflow
func (s *InMemoryStatusStorage) GetStatus(ctx context.Context, workflow string) (*domain.WorkflowStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status, ok := s.statuses[workflow]
	if !ok {
		return nil, fmt.Errorf("status of %s: %w", workflow, domain.ErrNotFound)
	}

	return &status, nil
}

// ListStatuses returns every stored status ordered by workflow name
func (s *InMemoryStatusStorage) ListStatuses(ctx context.Context) ([]*domain.WorkflowStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.WorkflowStatus, 0, len(s.statuses))
	for _, status := range s.statuses {
		status := status
		out = append(out, &status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Workflow < out[j].Workflow })

	return out, nil
}
