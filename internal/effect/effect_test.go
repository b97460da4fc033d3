package effect

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/npdrv/internal/clock"
	"github.com/coreman2200/npdrv/internal/driver/fake"
	"github.com/coreman2200/npdrv/internal/frame"
	"github.com/coreman2200/npdrv/internal/pixel"
)

func TestChaseProducesSizePlusOneFrames(t *testing.T) {
	clk := &clock.Manual{}
	drv := &fake.Driver{Clock: clk}
	green := pixel.Pack(0, 255, 0)
	want := pixel.ToDeviceOrder(green)

	require.NoError(t, Chase(context.Background(), drv, clk, green))

	pushes := drv.Pushes()
	require.Len(t, pushes, frame.Size+1)
	for i := 0; i < frame.Size; i++ {
		f := pushes[i].Frame
		for j := range f {
			if j <= i {
				assert.Equal(t, want, f[j], "frame %d pixel %d", i, j)
			} else {
				assert.Equal(t, pixel.Off, f[j], "frame %d pixel %d", i, j)
			}
		}
		assert.Equal(t, time.Duration(i)*ChaseStep, pushes[i].At)
	}
	assert.Equal(t, frame.Off, pushes[frame.Size].Frame)
	assert.Equal(t, time.Duration(frame.Size+1)*ChaseStep, clk.Elapsed())
}

func TestBlinkAlternatesOffAndColor(t *testing.T) {
	clk := &clock.Manual{}
	drv := &fake.Driver{Clock: clk}
	red := pixel.Pack(255, 0, 0)

	require.NoError(t, Blink(context.Background(), drv, clk, red, 3, 40*time.Millisecond))

	frames := drv.Frames()
	require.Len(t, frames, 6)
	lit := frame.Fill(pixel.ToDeviceOrder(red))
	for i, f := range frames {
		if i%2 == 0 {
			assert.Equal(t, frame.Off, f, "frame %d", i)
		} else {
			assert.Equal(t, lit, f, "frame %d", i)
		}
	}
	assert.Len(t, clk.Sleeps(), 6)
	assert.Equal(t, 240*time.Millisecond, clk.Elapsed())
}

func TestBlinkZeroRepsPushesNothing(t *testing.T) {
	clk := &clock.Manual{}
	drv := &fake.Driver{}
	require.NoError(t, Blink(context.Background(), drv, clk, 0xFFFFFF, 0, time.Second))
	assert.Zero(t, drv.Count())
	assert.Empty(t, clk.Sleeps())
}

func TestPartyStepRotatesByOne(t *testing.T) {
	clk := &clock.Manual{}
	drv := &fake.Driver{}
	initial := DefaultPalette()
	p := initial

	for k := 1; k <= 3*frame.Size+3; k++ {
		require.NoError(t, PartyStep(context.Background(), drv, clk, &p))
		var want Palette
		for i := range want {
			want[i] = initial[(i+k)%frame.Size]
		}
		if p != want {
			t.Fatalf("after %d steps: got %v want %v", k, p, want)
		}
	}

	frames := drv.Frames()
	assert.Equal(t, frame.Frame(initial), frames[0])
	assert.Equal(t, initial[1], frames[1][0])
	assert.Equal(t, PartyHold, clk.Sleeps()[0])
}

func TestBlinkStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	clk := &clock.Manual{OnSleep: func(n int) {
		if n == 3 {
			cancel()
		}
	}}
	drv := &fake.Driver{}

	err := Blink(ctx, drv, clk, 0xFF0000, 1000, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, drv.Count())
	assert.Len(t, clk.Sleeps(), 3)
}

func TestChaseStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	drv := &fake.Driver{}

	err := Chase(ctx, drv, &clock.Manual{}, 0x00FF00)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, drv.Count())
}
