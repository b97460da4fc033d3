package frame

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/npdrv/internal/pixel"
)

// captureDriver keeps every frame pushed.
type captureDriver struct {
	frames []Frame
	err    error
}

func (d *captureDriver) PushFrame(f Frame) error {
	d.frames = append(d.frames, f)
	return d.err
}

func TestAppendSignalsCompleteAtSize(t *testing.T) {
	var b Buffer
	for i := 0; i < Size-1; i++ {
		complete, err := b.Append(pixel.GRB(i + 1))
		require.NoError(t, err)
		assert.False(t, complete, "pixel %d", i)
	}
	complete, err := b.Append(pixel.GRB(Size))
	require.NoError(t, err)
	assert.True(t, complete)
	assert.Equal(t, Size, b.Cursor())

	_, err = b.Append(1)
	assert.ErrorIs(t, err, ErrOverrun)
	assert.Equal(t, Size, b.Cursor())
}

func TestFlushPushesInPositionOrder(t *testing.T) {
	var b Buffer
	drv := &captureDriver{}
	for i := 0; i < Size; i++ {
		_, _ = b.Append(pixel.GRB(0x10 + i))
	}
	require.NoError(t, b.Flush(drv))
	require.Len(t, drv.frames, 1)
	for i, p := range drv.frames[0] {
		assert.Equal(t, pixel.GRB(0x10+i), p)
	}
	assert.Equal(t, 0, b.Cursor())
}

func TestFlushRefusesPartialFrame(t *testing.T) {
	var b Buffer
	drv := &captureDriver{}
	_, _ = b.Append(0xFF)
	assert.ErrorIs(t, b.Flush(drv), ErrIncomplete)
	assert.Empty(t, drv.frames)
	assert.Equal(t, 1, b.Cursor())
}

func TestFlushResetsCursorOnDriverError(t *testing.T) {
	var b Buffer
	boom := errors.New("boom")
	drv := &captureDriver{err: boom}
	for i := 0; i < Size; i++ {
		_, _ = b.Append(0x01)
	}
	assert.ErrorIs(t, b.Flush(drv), boom)
	assert.Equal(t, 0, b.Cursor())
}

func TestPushedFrameIsNotAliased(t *testing.T) {
	var b Buffer
	drv := &captureDriver{}
	for i := 0; i < Size; i++ {
		_, _ = b.Append(0xAA)
	}
	require.NoError(t, b.Flush(drv))
	_, _ = b.Append(0xBB)
	assert.Equal(t, pixel.GRB(0xAA), drv.frames[0][0])
}

func TestDiscardZeroFills(t *testing.T) {
	var b Buffer
	_, _ = b.Append(0x123456)
	_, _ = b.Append(0x123456)
	b.Discard()
	assert.Equal(t, 0, b.Cursor())
	assert.Equal(t, Off, b.Pixels())
}

func TestFill(t *testing.T) {
	f := Fill(0x00FF00)
	for _, p := range f {
		assert.Equal(t, pixel.GRB(0x00FF00), p)
	}
}
