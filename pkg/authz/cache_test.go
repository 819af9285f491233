//go:build integration
// +build integration

package authz

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
)

var redisContainer *tcredis.RedisContainer

func TestMain(m *testing.M) {
	code := m.Run()

	if redisContainer != nil {
		_ = redisContainer.Terminate(context.Background())
	}

	os.Exit(code)
}

func setupTestCache(t *testing.T) *Cache {
	t.Helper()

	ctx := context.Background()

	if redisContainer == nil || !redisContainer.IsRunning() {
		var err error
		redisContainer, err = tcredis.Run(ctx, "redis:7-alpine")
		require.NoError(t, err)
	}

	endpoint, err := redisContainer.ConnectionString(ctx)
	require.NoError(t, err)

	addr := strings.TrimPrefix(endpoint, "redis://")
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	cache, err := NewCache(ctx, logger, addr, "", 0)
	require.NoError(t, err)

	return cache
}

func TestCheck_ValidKeyPasses(t *testing.T) {
	cache := setupTestCache(t)
	ctx := context.Background()

	auth := &models.Authorization{
		SessionKey: "sk-valid",
		Delegator:  "0xdelegator",
		ExpiresAt:  time.Now().UTC().Add(time.Hour),
	}

	assert.NoError(t, cache.Check(ctx, auth))
}

func TestCheck_ExpiredKeyRejected(t *testing.T) {
	cache := setupTestCache(t)
	ctx := context.Background()

	auth := &models.Authorization{
		SessionKey: "sk-expired",
		ExpiresAt:  time.Now().UTC().Add(-time.Hour),
	}

	assert.ErrorIs(t, cache.Check(ctx, auth), ErrAuthorizationExpired)
}

func TestRevoke_ExpiringKey(t *testing.T) {
	cache := setupTestCache(t)
	ctx := context.Background()

	auth := &models.Authorization{
		SessionKey: "sk-revocable",
		ExpiresAt:  time.Now().UTC().Add(time.Hour),
	}

	require.NoError(t, cache.Check(ctx, auth))
	require.NoError(t, cache.Revoke(ctx, auth))

	assert.ErrorIs(t, cache.Check(ctx, auth), ErrAuthorizationRevoked)
}

func TestRevoke_NonExpiringKey(t *testing.T) {
	cache := setupTestCache(t)
	ctx := context.Background()

	// Zero ExpiresAt means the delegation never expires on its own, so
	// revocation is the only way to cut it off. The marker must be written
	// without a TTL.
	auth := &models.Authorization{
		SessionKey: "sk-long-lived",
		Delegator:  "0xdelegator",
	}

	require.NoError(t, cache.Check(ctx, auth))
	require.NoError(t, cache.Revoke(ctx, auth))

	assert.ErrorIs(t, cache.Check(ctx, auth), ErrAuthorizationRevoked)

	// No positive TTL on the marker: it never lapses on its own.
	ttl, err := cache.client.TTL(ctx, revocationKey(auth.SessionKey)).Result()
	require.NoError(t, err)
	assert.Negative(t, ttl)
}

func TestRevoke_AlreadyExpiredKeyIsNoOp(t *testing.T) {
	cache := setupTestCache(t)
	ctx := context.Background()

	auth := &models.Authorization{
		SessionKey: "sk-past",
		ExpiresAt:  time.Now().UTC().Add(-time.Minute),
	}

	require.NoError(t, cache.Revoke(ctx, auth))

	exists, err := cache.client.Exists(ctx, revocationKey(auth.SessionKey)).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestRecordUsage_Increments(t *testing.T) {
	cache := setupTestCache(t)
	ctx := context.Background()

	auth := &models.Authorization{
		SessionKey: "sk-counted",
		ExpiresAt:  time.Now().UTC().Add(time.Hour),
	}

	count, err := cache.RecordUsage(ctx, auth)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	count, err = cache.RecordUsage(ctx, auth)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}
