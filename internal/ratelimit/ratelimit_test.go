package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleRateLimiter_FirstWaitIsImmediate(t *testing.T) {
	l := NewSimpleRateLimiter(time.Hour, time.Hour)

	start := time.Now()
	require.NoError(t, l.Wait(context.Background()))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestSimpleRateLimiter_SpacesActions(t *testing.T) {
	l := NewSimpleRateLimiter(30*time.Millisecond, 30*time.Millisecond)

	require.NoError(t, l.Wait(context.Background()))
	start := time.Now()
	require.NoError(t, l.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)
}

func TestSimpleRateLimiter_ContextCancel(t *testing.T) {
	l := NewSimpleRateLimiter(time.Hour, 2*time.Hour)
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Wait(ctx), context.Canceled)
}

func TestSimpleRateLimiter_DelayWithinBounds(t *testing.T) {
	l := NewSimpleRateLimiter(10*time.Millisecond, 20*time.Millisecond)
	for i := 0; i < 50; i++ {
		d := l.calculateDelay()
		assert.GreaterOrEqual(t, d, 10*time.Millisecond)
		assert.Less(t, d, 20*time.Millisecond)
	}

	l.SetDelay(5*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, 5*time.Millisecond, l.calculateDelay())
}
