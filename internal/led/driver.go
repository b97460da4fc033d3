package led

import "github.com/coreman2200/npdrv/internal/frame"

// Driver abstracts the strip output sink.
type Driver interface {
	// PushFrame sends one complete device-order frame to the strip and
	// returns once it is latched.
	PushFrame(f frame.Frame) error
	// Close releases resources.
	Close() error
}

// rgbBytes flattens a frame into wire-order R,G,B bytes.
func rgbBytes(f frame.Frame, dst []byte) []byte {
	dst = dst[:0]
	for _, p := range f {
		r, g, b := p.Channels()
		dst = append(dst, r, g, b)
	}
	return dst
}
