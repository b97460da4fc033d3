package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealSleepReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := Real{}.Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRealSleepElapses(t *testing.T) {
	require.NoError(t, Real{}.Sleep(context.Background(), time.Millisecond))
}

func TestManualRecordsAndCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manual{OnSleep: func(n int) {
		if n == 2 {
			cancel()
		}
	}}

	require.NoError(t, m.Sleep(ctx, 10*time.Millisecond))
	assert.ErrorIs(t, m.Sleep(ctx, 20*time.Millisecond), context.Canceled)
	assert.ErrorIs(t, m.Sleep(ctx, 40*time.Millisecond), context.Canceled)

	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, m.Sleeps())
	assert.Equal(t, 30*time.Millisecond, m.Elapsed())
}
