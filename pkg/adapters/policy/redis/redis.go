package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Source implements PolicySource on top of a Redis hash. Operators can
// flip a flag with HSET and every workflow sees it on its next tick.
type Source struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

// NewSource creates a new Redis policy source reading hash key
func NewSource(client *redis.Client, key string, logger *zap.Logger) *Source {
	return &Source{
		client: client,
		key:    key,
		logger: logger,
	}
}

// LoadOverrides reads all fields of the policy hash
func (s *Source) LoadOverrides(ctx context.Context) (map[string]string, error) {
	values, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read policy hash: %w", err)
	}

	s.logger.Debug("policy overrides loaded",
		zap.String("key", s.key),
		zap.Int("fields", len(values)))

	return values, nil
}

// SaveOverrides writes fields into the policy hash
func (s *Source) SaveOverrides(ctx context.Context, overrides map[string]string) error {
	if len(overrides) == 0 {
		return nil
	}

	values := make(map[string]interface{}, len(overrides))
	for k, v := range overrides {
		values[k] = v
	}

	if err := s.client.HSet(ctx, s.key, values).Err(); err != nil {
		return fmt.Errorf("failed to write policy hash: %w", err)
	}

	return nil
}
