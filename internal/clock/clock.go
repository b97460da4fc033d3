// Package clock provides the sleep primitive used for effect timing and
// frame pacing, so that timing can be asserted without waiting.
package clock

import (
	"context"
	"sync"
	"time"
)

// Clock holds the caller for a duration. Sleep returns ctx.Err() early if
// ctx is done first.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// Real sleeps on the wall clock.
type Real struct{}

func (Real) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Manual records requested sleeps and returns immediately. A sleep on a
// done context is not recorded.
type Manual struct {
	// OnSleep, when set, runs after each recorded sleep with the number of
	// sleeps so far.
	OnSleep func(n int)

	mu     sync.Mutex
	sleeps []time.Duration
}

func (m *Manual) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.sleeps = append(m.sleeps, d)
	n := len(m.sleeps)
	m.mu.Unlock()
	if m.OnSleep != nil {
		m.OnSleep(n)
	}
	return ctx.Err()
}

// Sleeps returns a copy of every duration passed to Sleep, in order.
func (m *Manual) Sleeps() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Duration, len(m.sleeps))
	copy(out, m.sleeps)
	return out
}

// Elapsed is the sum of all recorded sleeps.
func (m *Manual) Elapsed() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total time.Duration
	for _, d := range m.sleeps {
		total += d
	}
	return total
}
