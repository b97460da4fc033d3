package fake

import (
	"sync"
	"time"

	"github.com/coreman2200/npdrv/internal/clock"
	"github.com/coreman2200/npdrv/internal/frame"
)

// Pushed is one captured frame and the manual-clock time it arrived at.
type Pushed struct {
	Frame frame.Frame
	At    time.Duration
}

// Driver records every frame pushed to it, useful for headless tests.
// When Clock is set each frame is stamped with the clock's elapsed time.
type Driver struct {
	Clock *clock.Manual
	Err   error

	mu     sync.Mutex
	pushed []Pushed
	closed bool
}

func (d *Driver) PushFrame(f frame.Frame) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := Pushed{Frame: f}
	if d.Clock != nil {
		p.At = d.Clock.Elapsed()
	}
	d.pushed = append(d.pushed, p)
	return d.Err
}

func (d *Driver) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

// Count is the number of frames pushed so far.
func (d *Driver) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pushed)
}

// Frames returns the captured frames in push order.
func (d *Driver) Frames() []frame.Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]frame.Frame, len(d.pushed))
	for i, p := range d.pushed {
		out[i] = p.Frame
	}
	return out
}

// Pushes returns the captured frames with their timestamps.
func (d *Driver) Pushes() []Pushed {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Pushed(nil), d.pushed...)
}

// Last returns the most recent frame, or false if none was pushed.
func (d *Driver) Last() (frame.Frame, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.pushed) == 0 {
		return frame.Frame{}, false
	}
	return d.pushed[len(d.pushed)-1].Frame, true
}

func (d *Driver) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
