package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	autherror "github.com/careledger/auth-service/internal/errors"
	"github.com/careledger/auth-service/internal/ratelimit"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, max int, window time.Duration) (*ratelimit.Limiter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return ratelimit.NewLimiter(client, max, window), mr
}

func TestLimiter_Allow(t *testing.T) {
	limiter, _ := newTestLimiter(t, 5, 5*time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		assert.NoError(t, limiter.Allow(ctx, "verify:10.0.0.1"))
	}

	err := limiter.Allow(ctx, "verify:10.0.0.1")
	assert.ErrorIs(t, err, autherror.ErrRateLimited)
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1, 5*time.Minute)
	ctx := context.Background()

	require.NoError(t, limiter.Allow(ctx, "verify:10.0.0.1"))
	assert.ErrorIs(t, limiter.Allow(ctx, "verify:10.0.0.1"), autherror.ErrRateLimited)

	// A different origin and a different endpoint each get their own budget.
	assert.NoError(t, limiter.Allow(ctx, "verify:10.0.0.2"))
	assert.NoError(t, limiter.Allow(ctx, "resend:10.0.0.1"))
}

func TestLimiter_WindowReset(t *testing.T) {
	limiter, mr := newTestLimiter(t, 1, 5*time.Minute)
	ctx := context.Background()

	require.NoError(t, limiter.Allow(ctx, "verify:10.0.0.1"))
	require.ErrorIs(t, limiter.Allow(ctx, "verify:10.0.0.1"), autherror.ErrRateLimited)

	mr.FastForward(5*time.Minute + time.Second)

	assert.NoError(t, limiter.Allow(ctx, "verify:10.0.0.1"))
}

func TestLimiter_StoreUnavailable(t *testing.T) {
	limiter, mr := newTestLimiter(t, 5, 5*time.Minute)
	mr.Close()

	err := limiter.Allow(context.Background(), "verify:10.0.0.1")
	assert.ErrorIs(t, err, autherror.ErrUnavailable)
}
