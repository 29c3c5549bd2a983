package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ms-approvals/internal/models"

	"github.com/go-redis/redis/v8"
)

const (
	// GuardianViewKeyPrefix namespaces cached guardian views
	GuardianViewKeyPrefix = "guardian_events:"
	// GuardianGenerationKeyPrefix namespaces the per-guardian write counters
	GuardianGenerationKeyPrefix = "guardian_events_gen:"
	// GenerationTTL bounds how long an idle counter is kept
	GenerationTTL = 24 * time.Hour
	// DefaultTTL applies when the configured TTL is not positive
	DefaultTTL = 30 * time.Second
)

// RedisViewCache stores GuardianEventsView projections per guardian
type RedisViewCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisViewCache(client *redis.Client, ttl time.Duration) *RedisViewCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisViewCache{
		Client: client,
		TTL:    ttl,
	}
}

func GuardianViewKey(guardianID string) string {
	return GuardianViewKeyPrefix + guardianID
}

func GuardianGenerationKey(guardianID string) string {
	return GuardianGenerationKeyPrefix + guardianID
}

var errGenerationMoved = errors.New("guardian generation moved")

// Get returns the cached view, or nil on a miss
func (c *RedisViewCache) Get(ctx context.Context, guardianID string) (*models.GuardianEventsView, error) {
	if c.Client == nil {
		return nil, fmt.Errorf("redis client not initialized")
	}

	raw, err := c.Client.Get(ctx, GuardianViewKey(guardianID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get guardian view from Redis: %w", err)
	}

	var view models.GuardianEventsView
	if err := json.Unmarshal(raw, &view); err != nil {
		return nil, fmt.Errorf("failed to unmarshal guardian view: %w", err)
	}
	return &view, nil
}

// Generation returns the guardian's write counter; a missing counter reads as 0
func (c *RedisViewCache) Generation(ctx context.Context, guardianID string) (int64, error) {
	if c.Client == nil {
		return 0, fmt.Errorf("redis client not initialized")
	}
	return readGeneration(ctx, c.Client, guardianID)
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readGeneration(ctx context.Context, cmd stringGetter, guardianID string) (int64, error) {
	gen, err := cmd.Get(ctx, GuardianGenerationKey(guardianID)).Int64()
	if err == redis.Nil {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("failed to read guardian generation: %w", err)
	}
	return gen, nil
}

// Set stores the view only while the guardian's generation still equals
// generation. It reports false, nil when a write invalidated in between.
func (c *RedisViewCache) Set(ctx context.Context, guardianID string, generation int64, view *models.GuardianEventsView) (bool, error) {
	if c.Client == nil {
		return false, fmt.Errorf("redis client not initialized")
	}

	raw, err := json.Marshal(view)
	if err != nil {
		return false, fmt.Errorf("failed to marshal guardian view: %w", err)
	}

	err = c.Client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx, guardianID)
		if err != nil {
			return err
		}
		if current != generation {
			return errGenerationMoved
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, GuardianViewKey(guardianID), raw, c.TTL)
			return nil
		})
		return err
	}, GuardianGenerationKey(guardianID))

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errGenerationMoved), errors.Is(err, redis.TxFailedErr):
		return false, nil
	default:
		return false, fmt.Errorf("failed to store guardian view in Redis: %w", err)
	}
}

// Invalidate drops the cached view and bumps the generation so in-flight
// reads cannot store what they loaded before the write
func (c *RedisViewCache) Invalidate(ctx context.Context, guardianID string) error {
	if c.Client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	genKey := GuardianGenerationKey(guardianID)
	_, err := c.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, GenerationTTL)
		pipe.Del(ctx, GuardianViewKey(guardianID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate guardian view: %w", err)
	}
	return nil
}

// InitializeClient opens a Redis client and checks the connection
func InitializeClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: 10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}
