package led

import (
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/coreman2200/npdrv/internal/frame"
)

// Sim logs frames instead of driving hardware.
type Sim struct {
	log   zerolog.Logger
	count atomic.Uint64
}

func NewSim(logger zerolog.Logger) *Sim {
	return &Sim{log: logger.With().Str("driver", "sim").Logger()}
}

func (s *Sim) PushFrame(f frame.Frame) error {
	n := s.count.Add(1)
	if e := s.log.Debug(); e.Enabled() {
		arr := zerolog.Arr()
		for _, p := range f {
			arr.Str(p.String())
		}
		e.Uint64("frame", n).Array("grb", arr).Msg("push")
	}
	return nil
}

// Frames is the number of frames pushed so far.
func (s *Sim) Frames() uint64 { return s.count.Load() }

func (s *Sim) Close() error { return nil }
