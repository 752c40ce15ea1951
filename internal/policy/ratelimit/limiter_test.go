package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiterWaitDelaysSameHost(t *testing.T) {
	t.Parallel()

	// 10 RPS with burst 1 leaves ~100ms between tokens.
	l := New(Config{PerHostRPS: 10, PerHostBurst: 1})
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "https://test.com/a"))

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://TEST.com/b"))
	require.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
	require.Equal(t, 1, l.Hosts())
}

func TestLimiterDifferentHostsIndependent(t *testing.T) {
	t.Parallel()

	l := New(Config{PerHostRPS: 1, PerHostBurst: 1})
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "https://a.com/1"))

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://b.com/1"))
	require.Less(t, time.Since(start), 50*time.Millisecond, "host b blocked by host a")
	require.Equal(t, 2, l.Hosts())
}

func TestLimiterFailsWhenDeadlineTooShort(t *testing.T) {
	t.Parallel()

	l := New(Config{PerHostRPS: 0.1, PerHostBurst: 1})
	require.NoError(t, l.Wait(context.Background(), "https://slow.com"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	require.Error(t, l.Wait(ctx, "https://slow.com"))
	require.Less(t, time.Since(start), 40*time.Millisecond)
}

func TestLimiterDisabled(t *testing.T) {
	t.Parallel()

	cfg := Config{}
	require.False(t, cfg.Enabled())
	l := New(cfg)
	start := time.Now()
	for range 50 {
		require.NoError(t, l.Wait(context.Background(), "https://example.com"))
	}
	require.Less(t, time.Since(start), 50*time.Millisecond)
}
