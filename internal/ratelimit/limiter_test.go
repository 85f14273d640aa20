package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/membership-service/internal/config"
)

func newTestLimiter(t *testing.T) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := New(client, config.RateLimitConfig{
		Enabled:                true,
		MaxLoginAttempts:       3,
		LoginCooldownSeconds:   60,
		MaxRefreshAttempts:     2,
		RefreshCooldownSeconds: 30,
	})
	return limiter, mr
}

func TestLoginBudgetExhaustion(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	require.NoError(t, limiter.CheckLogin(ctx, "a@b.com"))
	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.RecordLoginFailure(ctx, "a@b.com"))
	}

	assert.ErrorIs(t, limiter.CheckLogin(ctx, "a@b.com"), ErrLimited)
	assert.ErrorIs(t, limiter.RecordLoginFailure(ctx, "a@b.com"), ErrLimited)

	// Another identifier is unaffected.
	assert.NoError(t, limiter.CheckLogin(ctx, "other@b.com"))
}

func TestResetLoginClearsCounter(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.RecordLoginFailure(ctx, "a@b.com"))
	}
	require.ErrorIs(t, limiter.CheckLogin(ctx, "a@b.com"), ErrLimited)

	require.NoError(t, limiter.ResetLogin(ctx, "a@b.com"))
	assert.NoError(t, limiter.CheckLogin(ctx, "a@b.com"))
}

func TestLoginCooldownExpires(t *testing.T) {
	limiter, mr := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.RecordLoginFailure(ctx, "a@b.com"))
	}
	require.ErrorIs(t, limiter.CheckLogin(ctx, "a@b.com"), ErrLimited)

	mr.FastForward(61 * time.Second)
	assert.NoError(t, limiter.CheckLogin(ctx, "a@b.com"))
}

func TestRefreshBudget(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	require.NoError(t, limiter.CheckRefresh(ctx, "member-1"))
	require.NoError(t, limiter.CheckRefresh(ctx, "member-1"))
	assert.ErrorIs(t, limiter.CheckRefresh(ctx, "member-1"), ErrLimited)
}

func TestDisabledLimiterNoOps(t *testing.T) {
	limiter := New(nil, config.RateLimitConfig{})
	ctx := context.Background()

	assert.NoError(t, limiter.CheckLogin(ctx, "a@b.com"))
	assert.NoError(t, limiter.RecordLoginFailure(ctx, "a@b.com"))
	assert.NoError(t, limiter.ResetLogin(ctx, "a@b.com"))
	assert.NoError(t, limiter.CheckRefresh(ctx, "member-1"))
}
