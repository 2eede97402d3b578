package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aescanero/dropship/pkg/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "dropship:status:"

// StatusStorage implements StatusStore using Redis
type StatusStorage struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewStatusStorage creates a new Redis status storage. Every save
// refreshes the TTL of the key.
func NewStatusStorage(client *redis.Client, ttl time.Duration, logger *zap.Logger) *StatusStorage {
	return &StatusStorage{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

// SaveStatus saves the status of a workflow to Redis
func (s *StatusStorage) SaveStatus(ctx context.Context, status *domain.WorkflowStatus) error {
	if status == nil || status.Workflow == "" {
		return fmt.Errorf("invalid status: workflow name is required")
	}

	key := getStatusKey(status.Workflow)

	// Serialize status
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	// Save to Redis with TTL
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save status: %w", err)
	}

	s.logger.Debug("status saved",
		zap.String("workflow", status.Workflow),
		zap.String("state", status.State))

	return nil
}

// GetStatus retrieves the status of a workflow from Redis
func (s *StatusStorage) GetStatus(ctx context.Context, workflow string) (*domain.WorkflowStatus, error) {
	data, err := s.client.Get(ctx, getStatusKey(workflow)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("status of %s: %w", workflow, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	return decodeStatus(data)
}

// ListStatuses lists every stored status ordered by workflow name
func (s *StatusStorage) ListStatuses(ctx context.Context) ([]*domain.WorkflowStatus, error) {
	// Scan for keys
	var cursor uint64
	var keys []string

	for {
		var batch []string
		var err error

		batch, cursor, err = s.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan keys: %w", err)
		}

		keys = append(keys, batch...)

		if cursor == 0 {
			break
		}
	}

	statuses := make([]*domain.WorkflowStatus, 0, len(keys))
	for _, key := range keys {
		data, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			// expired between scan and get
			continue
		}

		status, err := decodeStatus(data)
		if err != nil {
			s.logger.Warn("skipping unreadable status",
				zap.String("key", key),
				zap.Error(err))
			continue
		}

		statuses = append(statuses, status)
	}

	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Workflow < statuses[j].Workflow })
	return statuses, nil
}

func decodeStatus(data []byte) (*domain.WorkflowStatus, error) {
	var status domain.WorkflowStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status: %w", err)
	}
	return &status, nil
}

// getStatusKey returns the Redis key for a workflow status
func getStatusKey(workflow string) string {
	return keyPrefix + workflow
}
