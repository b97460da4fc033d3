// Package frame holds the fixed-size pixel frame for the strip and the
// incremental buffer that fills it as pixels arrive.
package frame

import (
	"errors"

	"github.com/coreman2200/npdrv/internal/pixel"
)

// Size is the number of pixels on the strip.
const Size = 8

var (
	// ErrOverrun means Append was called on a full buffer.
	ErrOverrun = errors.New("frame: append past end of frame")
	// ErrIncomplete means Flush was called before all pixels were received.
	ErrIncomplete = errors.New("frame: flush of incomplete frame")
)

// Frame is one complete set of device-order pixels, index = strip position.
type Frame [Size]pixel.GRB

// Off is the all-dark frame.
var Off Frame

// Fill returns a frame with every pixel set to c.
func Fill(c pixel.GRB) Frame {
	var f Frame
	for i := range f {
		f[i] = c
	}
	return f
}

// Pusher accepts complete frames. PushFrame is synchronous; the frame is
// passed by value and must not be retained by reference.
type Pusher interface {
	PushFrame(f Frame) error
}

// Buffer is a frame under construction plus its receive cursor.
type Buffer struct {
	pixels Frame
	cursor int
}

// Cursor is the number of pixels received for the current frame.
func (b *Buffer) Cursor() int { return b.cursor }

// Pixels returns the current contents, including unfilled positions.
func (b *Buffer) Pixels() Frame { return b.pixels }

// Append writes p at the cursor and advances it. complete is true when the
// frame now holds Size pixels.
func (b *Buffer) Append(p pixel.GRB) (complete bool, err error) {
	if b.cursor >= Size {
		return false, ErrOverrun
	}
	b.pixels[b.cursor] = p
	b.cursor++
	return b.cursor == Size, nil
}

// Flush pushes the full frame to out and resets the cursor. Nothing is
// pushed unless the frame is complete. The cursor is reset even when the
// push itself fails.
func (b *Buffer) Flush(out Pusher) error {
	if b.cursor != Size {
		return ErrIncomplete
	}
	b.cursor = 0
	return out.PushFrame(b.pixels)
}

// Discard zero-fills the buffer and resets the cursor.
func (b *Buffer) Discard() {
	b.pixels = Off
	b.cursor = 0
}
