package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/flowmesh/flowmesh/pkg/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// snapshotTTL bounds how long completed execution contexts stay cached.
const snapshotTTL = 24 * time.Hour

// ContextBuilder seeds and enriches execution contexts and caches
// completed context snapshots in Redis for fast trace lookups. The Redis
// client is optional; without it the builder degrades to in-memory only.
type ContextBuilder struct {
	redis  *redis.Client
	logger *logger.Logger
}

// NewContextBuilder creates a new context builder
func NewContextBuilder(redisClient *redis.Client, log *logger.Logger) *ContextBuilder {
	return &ContextBuilder{
		redis:  redisClient,
		logger: log,
	}
}

// Build seeds a fresh execution context from the trigger input. The
// returned map is owned by exactly one execution and never shared across
// runs.
func (cb *ContextBuilder) Build(triggerInput map[string]interface{}) map[string]interface{} {
	execContext := make(map[string]interface{}, len(triggerInput)+2)
	for key, value := range triggerInput {
		execContext[key] = value
	}

	cb.enrich(execContext)
	return execContext
}

// enrich adds execution metadata and computed time fields useful for
// time-based conditions.
func (cb *ContextBuilder) enrich(execContext map[string]interface{}) {
	now := time.Now()

	execContext["_meta"] = map[string]interface{}{
		"seeded_at": now.Unix(),
		"version":   "1.0",
	}

	execContext["_computed"] = map[string]interface{}{
		"current_time":        now.Unix(),
		"current_hour":        now.Hour(),
		"current_day_of_week": now.Weekday().String(),
		"current_date":        now.Format("2006-01-02"),
	}
}

// CacheSnapshot stores a completed execution's context in Redis.
// Best-effort; callers treat failures as non-fatal.
func (cb *ContextBuilder) CacheSnapshot(ctx context.Context, executionID uuid.UUID, execContext map[string]interface{}) error {
	if cb.redis == nil {
		return nil
	}

	data, err := json.Marshal(execContext)
	if err != nil {
		return fmt.Errorf("failed to marshal context snapshot: %w", err)
	}

	if err := cb.redis.Set(ctx, snapshotKey(executionID), data, snapshotTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache context snapshot: %w", err)
	}

	return nil
}

// GetSnapshot retrieves a cached context snapshot, or nil on a miss.
func (cb *ContextBuilder) GetSnapshot(ctx context.Context, executionID uuid.UUID) (map[string]interface{}, error) {
	if cb.redis == nil {
		return nil, nil
	}

	data, err := cb.redis.Get(ctx, snapshotKey(executionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}

	var snapshot map[string]interface{}
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached snapshot: %w", err)
	}

	return snapshot, nil
}

func snapshotKey(executionID uuid.UUID) string {
	return fmt.Sprintf("execution:context:%s", executionID)
}
