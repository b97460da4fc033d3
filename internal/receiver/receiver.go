// Package receiver reads command and pixel bytes from the serial link one
// at a time, either blocking or bounded by a timeout.
package receiver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

var (
	// ErrTimeout is returned by ReadByte when no byte arrived in time.
	ErrTimeout = errors.New("receiver: read timed out")
	// ErrClosed is returned once the port is closed or has failed.
	ErrClosed = errors.New("receiver: port closed")
)

const pumpChunk = 64

// Receiver owns a pump goroutine that drains the port into a channel.
// Reads hand out exactly one byte each.
type Receiver struct {
	port  io.Reader
	bytes chan byte
	done  chan struct{}

	once sync.Once
	mu   sync.Mutex
	err  error
}

// New starts pumping port. The caller must Close the receiver.
func New(port io.Reader) *Receiver {
	r := &Receiver{
		port:  port,
		bytes: make(chan byte, 256),
		done:  make(chan struct{}),
	}
	go r.pump()
	return r
}

func (r *Receiver) pump() {
	defer close(r.bytes)
	buf := make([]byte, pumpChunk)
	for {
		n, err := r.port.Read(buf)
		for _, b := range buf[:n] {
			select {
			case r.bytes <- b:
			case <-r.done:
				return
			}
		}
		if err != nil {
			r.mu.Lock()
			r.err = err
			r.mu.Unlock()
			return
		}
	}
}

func (r *Receiver) closedErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil && !errors.Is(r.err, io.EOF) {
		return fmt.Errorf("%w: %v", ErrClosed, r.err)
	}
	return ErrClosed
}

// ReadByte returns the next byte, or ErrTimeout after timeout of silence.
func (r *Receiver) ReadByte(timeout time.Duration) (byte, error) {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case b, ok := <-r.bytes:
		if !ok {
			return 0, r.closedErr()
		}
		return b, nil
	case <-t.C:
		return 0, ErrTimeout
	}
}

// ReadByteBlocking waits for the next byte without a timeout. Cancelling
// ctx is only meant for shutdown.
func (r *Receiver) ReadByteBlocking(ctx context.Context) (byte, error) {
	select {
	case b, ok := <-r.bytes:
		if !ok {
			return 0, r.closedErr()
		}
		return b, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// TryReadByte returns a byte only if one is already waiting. ok is false
// when nothing is buffered; err is set once the port is closed.
func (r *Receiver) TryReadByte() (b byte, ok bool, err error) {
	select {
	case b, open := <-r.bytes:
		if !open {
			return 0, false, r.closedErr()
		}
		return b, true, nil
	default:
		return 0, false, nil
	}
}

// Close stops the pump and closes the port if it is an io.Closer. Bytes
// already buffered stay readable; after that reads return ErrClosed.
func (r *Receiver) Close() error {
	var err error
	r.once.Do(func() {
		close(r.done)
		if c, ok := r.port.(io.Closer); ok {
			err = c.Close()
		}
	})
	return err
}
