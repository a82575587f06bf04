package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"necroshell/pkg/engine"
)

// Snapshots persist for a month of inactivity before Redis reclaims them.
const runTTL = 30 * 24 * time.Hour

// RedisStorage implements the Storage interface over Redis. Run
// snapshots are JSON strings under run: keys; journals are lists under
// journal: keys.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance
func NewRedisStorage(redisURL string, logger *slog.Logger) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	return &RedisStorage{
		client: rdb,
		logger: logger,
	}
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	cmd := r.client.Ping(ctx)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

func runKey(id uuid.UUID) string { return "run:" + id.String() }

func journalKey(id uuid.UUID) string { return "journal:" + id.String() }

// Run snapshot operations

func (r *RedisStorage) SaveRun(ctx context.Context, id uuid.UUID, snap *engine.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		r.logger.Error("Failed to marshal run snapshot", "uuid", id, "error", err)
		return fmt.Errorf("failed to marshal run snapshot: %w", err)
	}

	cmd := r.client.Set(ctx, runKey(id), string(data), runTTL)
	if err := cmd.Err(); err != nil {
		r.logger.Error("Failed to save run snapshot", "uuid", id, "error", err)
		return fmt.Errorf("failed to save run snapshot: %w", err)
	}

	return nil
}

func (r *RedisStorage) LoadRun(ctx context.Context, id uuid.UUID) (*engine.Snapshot, error) {
	cmd := r.client.Get(ctx, runKey(id))
	if err := cmd.Err(); err != nil {
		if err == redis.Nil {
			r.logger.Warn("Run snapshot not found", "uuid", id)
			return nil, nil // Return nil for not found
		}
		r.logger.Error("Failed to load run snapshot", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to load run snapshot: %w", err)
	}

	data := cmd.Val()
	if data == "" {
		r.logger.Warn("Run snapshot not found", "uuid", id)
		return nil, nil
	}

	var snap engine.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		r.logger.Error("Failed to unmarshal run snapshot", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal run snapshot: %w", err)
	}

	return &snap, nil
}

func (r *RedisStorage) DeleteRun(ctx context.Context, id uuid.UUID) error {
	cmd := r.client.Del(ctx, runKey(id), journalKey(id))
	if err := cmd.Err(); err != nil {
		r.logger.Error("Failed to delete run", "uuid", id, "error", err)
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}

func (r *RedisStorage) ListRuns(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	iter := r.client.Scan(ctx, 0, "run:*", 100).Iterator()
	for iter.Next(ctx) {
		raw := strings.TrimPrefix(iter.Val(), "run:")
		id, err := uuid.Parse(raw)
		if err != nil {
			r.logger.Warn("Skipping malformed run key", "key", iter.Val())
			continue
		}
		ids = append(ids, id)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return ids, nil
}

// Journal operations (Redis list per run)

func (r *RedisStorage) AppendJournal(ctx context.Context, id uuid.UUID, entry string) error {
	key := journalKey(id)
	if err := r.client.RPush(ctx, key, entry).Err(); err != nil {
		r.logger.Error("Failed to append journal entry", "uuid", id, "error", err)
		return fmt.Errorf("failed to append journal entry: %w", err)
	}
	if err := r.client.Expire(ctx, key, runTTL).Err(); err != nil {
		r.logger.Warn("Failed to refresh journal TTL", "uuid", id, "error", err)
	}
	return nil
}

func (r *RedisStorage) ReadJournal(ctx context.Context, id uuid.UUID) ([]string, error) {
	entries, err := r.client.LRange(ctx, journalKey(id), 0, -1).Result()
	if err != nil {
		r.logger.Error("Failed to read journal", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	return entries, nil
}

func (r *RedisStorage) ClearJournal(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, journalKey(id)).Err(); err != nil {
		r.logger.Error("Failed to clear journal", "uuid", id, "error", err)
		return fmt.Errorf("failed to clear journal: %w", err)
	}
	return nil
}
