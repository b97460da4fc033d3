package led

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"

	"github.com/coreman2200/npdrv/internal/frame"
)

// DefaultSPIFreq gives three SPI bits per NRZ bit at the 800kHz strip rate.
const DefaultSPIFreq = 2500 * physic.KiloHertz

// SPI drives a WS2812 strip over an SPI MOSI line through nrzled.
type SPI struct {
	mu   sync.Mutex
	port spi.Port
	dev  *nrzled.Dev
	buf  []byte
}

// OpenSPI initializes the host drivers and opens the named SPI port
// ("" picks the first one available).
func OpenSPI(name string, freq physic.Frequency) (*SPI, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	p, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open spi %q: %w", name, err)
	}
	s, err := NewSPI(p, freq)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	return s, nil
}

// NewSPI wraps an already opened port.
func NewSPI(p spi.Port, freq physic.Frequency) (*SPI, error) {
	if freq == 0 {
		freq = DefaultSPIFreq
	}
	d, err := nrzled.NewSPI(p, &nrzled.Opts{
		NumPixels: frame.Size,
		Channels:  3,
		Freq:      freq,
	})
	if err != nil {
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	return &SPI{port: p, dev: d, buf: make([]byte, 0, frame.Size*3)}, nil
}

// PushFrame hands nrzled plain RGB bytes; nrzled emits them in the strip's
// GRB order itself.
func (s *SPI) PushFrame(f frame.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil {
		return fmt.Errorf("spi closed")
	}
	s.buf = rgbBytes(f, s.buf)
	if _, err := s.dev.Write(s.buf); err != nil {
		return fmt.Errorf("spi write: %w", err)
	}
	return nil
}

func (s *SPI) String() string { return s.dev.String() }

func (s *SPI) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil {
		return nil
	}
	err := s.dev.Halt()
	s.dev = nil
	if c, ok := s.port.(spi.PortCloser); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
