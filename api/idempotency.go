package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const headerIdempotencyKey = "Idempotency-Key"

// Deduper prevents the same submission from being stored twice.
type Deduper interface {
	// Add records the key and returns true if it was newly added.
	Add(ctx context.Context, owner, key string) (bool, error)
	// Remove deletes a previously added key, used when the store call fails.
	Remove(ctx context.Context, owner, key string) error
}

// RedisDeduper keeps submission keys in Redis so every instance sees them.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDeduper creates a deduper using the provided Redis client and TTL.
func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

func (r *RedisDeduper) key(owner, key string) string {
	return fmt.Sprintf("submission:%s:%s", owner, key)
}

func (r *RedisDeduper) Add(ctx context.Context, owner, key string) (bool, error) {
	return r.client.SetNX(ctx, r.key(owner, key), 1, r.ttl).Result()
}

func (r *RedisDeduper) Remove(ctx context.Context, owner, key string) error {
	return r.client.Del(ctx, r.key(owner, key)).Err()
}

// claimSubmission reserves the request's idempotency key. It returns a
// release func to call when the store rejects the submission, or false after
// it has already written a 409 response.
func (s *Server) claimSubmission(c echo.Context, owner string) (func(), bool, error) {
	key := c.Request().Header.Get(headerIdempotencyKey)
	if s.deduper == nil || key == "" {
		return func() {}, true, nil
	}
	ctx := c.Request().Context()
	added, err := s.deduper.Add(ctx, owner, key)
	if err != nil {
		// submissions still go through when redis is down
		s.logger.WithError(err).Warn("idempotency check failed")
		return func() {}, true, nil
	}
	if !added {
		metricsOf(c).SetErrorStage("duplicate")
		return nil, false, c.JSON(http.StatusConflict, errorResponse{Error: "duplicate submission"})
	}
	release := func() {
		if err := s.deduper.Remove(context.WithoutCancel(ctx), owner, key); err != nil {
			s.logger.WithError(err).Warn("unable to release idempotency key")
		}
	}
	return release, true, nil
}
