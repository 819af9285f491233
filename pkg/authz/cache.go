// Package authz tracks session key usage for delegated workflow executions.
// Session keys authorize on-chain blocks; the cache counts usage per key
// with a TTL matching the key expiry so revoked or expired delegations stop
// being accepted without a chain round trip.
package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
)

// ErrAuthorizationExpired indicates the session key is past its expiry.
var ErrAuthorizationExpired = errors.New("session key authorization expired")

// ErrAuthorizationRevoked indicates the session key was explicitly revoked.
var ErrAuthorizationRevoked = errors.New("session key authorization revoked")

const revokedMarker = "revoked"

// Cache is a redis-backed session key tracker.
type Cache struct {
	client redis.UniversalClient
	logger *slog.Logger
}

// NewCache connects to redis and verifies the connection.
func NewCache(ctx context.Context, logger *slog.Logger, addr, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := client.Ping(pingCtx).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.InfoContext(ctx, "Connected to Redis", "addr", addr, "db", db)

	return &Cache{
		client: client,
		logger: logger.With("module", "authz_cache"),
	}, nil
}

func usageKey(sessionKey string) string {
	return "zzyra:authz:usage:" + sessionKey
}

func revocationKey(sessionKey string) string {
	return "zzyra:authz:revoked:" + sessionKey
}

// Check validates an authorization before a run that contains on-chain
// blocks is enqueued: the key must be unexpired and not revoked.
func (c *Cache) Check(ctx context.Context, auth *models.Authorization) error {
	if auth.Expired(time.Now().UTC()) {
		return ErrAuthorizationExpired
	}

	revoked, err := c.client.Exists(ctx, revocationKey(auth.SessionKey)).Result()
	if err != nil {
		return fmt.Errorf("failed to check revocation: %w", err)
	}

	if revoked > 0 {
		return ErrAuthorizationRevoked
	}

	return nil
}

// RecordUsage increments the usage counter for the session key. The key
// expires with the authorization, so counters clean themselves up.
func (c *Cache) RecordUsage(ctx context.Context, auth *models.Authorization) (int64, error) {
	key := usageKey(auth.SessionKey)

	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to record session key usage: %w", err)
	}

	ttl := time.Until(auth.ExpiresAt)
	if ttl > 0 {
		if err := c.client.Expire(ctx, key, ttl).Err(); err != nil {
			c.logger.ErrorContext(ctx, "Failed to set usage TTL", "error", err)
		}
	}

	return count, nil
}

// Revoke marks a session key revoked until its natural expiry. A key with
// no expiry gets a marker without a TTL, so non-expiring delegations can
// still be cut off.
func (c *Cache) Revoke(ctx context.Context, auth *models.Authorization) error {
	var ttl time.Duration

	if !auth.ExpiresAt.IsZero() {
		ttl = time.Until(auth.ExpiresAt)
		if ttl <= 0 {
			// Already expired, Check rejects it without the marker.
			return nil
		}
	}

	err := c.client.Set(ctx, revocationKey(auth.SessionKey), revokedMarker, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to revoke session key: %w", err)
	}

	return nil
}

// Close releases the redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}
