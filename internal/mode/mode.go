// Package mode is the serial-command-driven state machine that owns the
// strip: it reads bytes from the receiver, assembles frames and runs the
// effects of the active mode.
package mode

import (
	"context"
	"encoding/binary"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/npdrv/internal/clock"
	"github.com/coreman2200/npdrv/internal/effect"
	"github.com/coreman2200/npdrv/internal/frame"
	"github.com/coreman2200/npdrv/internal/pixel"
	"github.com/coreman2200/npdrv/internal/receiver"
)

// Mode is the current protocol state.
type Mode int

const (
	Idle Mode = iota
	Raw
	AudiBlinker
	Notify
	Party
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Raw:
		return "raw"
	case AudiBlinker:
		return "audi"
	case Notify:
		return "notify"
	case Party:
		return "party"
	default:
		return "unknown"
	}
}

// Command bytes.
const (
	CmdRaw    byte = 'r'
	CmdAudi   byte = 'a'
	CmdNotify byte = 'n'
	CmdIdle   byte = 'i'
	CmdParty  byte = 'p'
)

const (
	DefaultByteTimeout = 1000000 * time.Microsecond
	DefaultFrameDelay  = 15 * time.Millisecond
)

// Source is the byte side of the serial link.
type Source interface {
	ReadByte(timeout time.Duration) (byte, error)
	ReadByteBlocking(ctx context.Context) (byte, error)
	TryReadByte() (byte, bool, error)
}

// Options tune the machine. Zero durations take the defaults.
type Options struct {
	ByteTimeout time.Duration
	FrameDelay  time.Duration

	// ExtendedCommands routes 'a', 'n', 'i' and 'p'. When false those
	// bytes are ignored like any other unknown command.
	ExtendedCommands bool
	// IdleFallthrough makes an unknown byte in Idle read one pixel triple
	// without entering Raw, as the original firmware's switch did.
	IdleFallthrough bool

	AudiColor pixel.RGB
	// OnTransition is called after every mode change.
	OnTransition func(from, to Mode)
}

// Notification asks for Repeat blinks of Color, Interval apart.
type Notification struct {
	Color    pixel.RGB
	Interval time.Duration
	Repeat   int
}

// State is everything the dispatch loop mutates.
type State struct {
	Mode    Mode
	Buffer  frame.Buffer
	Palette effect.Palette
	Pending Notification
}

// Machine runs the dispatch loop. It is not safe for concurrent use; Run
// is the only execution context that touches State.
type Machine struct {
	src  Source
	out  frame.Pusher
	clk  clock.Clock
	opts Options
	log  zerolog.Logger

	st State
}

// New builds a machine in Idle with the default palette.
func New(src Source, out frame.Pusher, clk clock.Clock, opts Options, logger zerolog.Logger) *Machine {
	if opts.ByteTimeout <= 0 {
		opts.ByteTimeout = DefaultByteTimeout
	}
	if opts.FrameDelay <= 0 {
		opts.FrameDelay = DefaultFrameDelay
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &Machine{
		src:  src,
		out:  out,
		clk:  clk,
		opts: opts,
		log:  logger,
		st:   State{Mode: Idle, Palette: effect.DefaultPalette()},
	}
}

func (m *Machine) Mode() Mode              { return m.st.Mode }
func (m *Machine) Cursor() int             { return m.st.Buffer.Cursor() }
func (m *Machine) Palette() effect.Palette { return m.st.Palette }

// Run dispatches until ctx is cancelled (returns nil) or the source fails.
func (m *Machine) Run(ctx context.Context) error {
	m.log.Info().Str("mode", m.st.Mode.String()).Bool("extended", m.opts.ExtendedCommands).Msg("dispatch loop starting")
	for {
		if err := m.Step(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// Step runs one iteration of the handler for the current mode.
func (m *Machine) Step(ctx context.Context) error {
	switch m.st.Mode {
	case Idle:
		return m.idle(ctx, &m.st)
	case Raw:
		return m.raw(ctx, &m.st)
	case AudiBlinker:
		return m.audi(ctx, &m.st)
	case Notify:
		return m.notify(ctx, &m.st)
	case Party:
		return m.party(ctx, &m.st)
	}
	return nil
}

func (m *Machine) transition(st *State, to Mode) {
	from := st.Mode
	if from == to {
		return
	}
	st.Mode = to
	m.log.Info().Str("from", from.String()).Str("to", to.String()).Msg("mode change")
	if m.opts.OnTransition != nil {
		m.opts.OnTransition(from, to)
	}
}

func (m *Machine) push(f frame.Frame) {
	if err := m.out.PushFrame(f); err != nil {
		m.log.Warn().Err(err).Msg("push frame failed")
	}
}

// idle blanks the strip and waits for one command byte.
func (m *Machine) idle(ctx context.Context, st *State) error {
	m.push(frame.Off)
	c, err := m.src.ReadByteBlocking(ctx)
	if err != nil {
		return err
	}
	if c == CmdRaw {
		m.transition(st, Raw)
		return nil
	}
	if m.opts.ExtendedCommands {
		switch c {
		case CmdAudi:
			m.transition(st, AudiBlinker)
			return nil
		case CmdParty:
			m.transition(st, Party)
			return nil
		case CmdNotify:
			return m.readNotification(st)
		case CmdIdle:
			return nil
		}
	}
	if m.opts.IdleFallthrough {
		return m.readPixel(ctx, st)
	}
	m.log.Debug().Hex("byte", []byte{c}).Msg("ignoring command")
	return nil
}

func (m *Machine) raw(ctx context.Context, st *State) error {
	return m.readPixel(ctx, st)
}

// readPixel reads one big-endian RGB triple and appends it. A timeout on
// any of the three bytes discards the partial frame and returns to Idle.
func (m *Machine) readPixel(ctx context.Context, st *State) error {
	var col uint32
	for i := 0; i < 3; i++ {
		c, err := m.src.ReadByte(m.opts.ByteTimeout)
		if errors.Is(err, receiver.ErrTimeout) {
			m.log.Info().Int("cursor", st.Buffer.Cursor()).Msg("raw timeout, discarding partial frame")
			st.Buffer.Discard()
			m.transition(st, Idle)
			return nil
		}
		if err != nil {
			return err
		}
		col |= uint32(c) << ((2 - i) * 8)
	}
	rgb := pixel.RGB(col)
	grb := pixel.ToDeviceOrder(rgb)
	m.log.Debug().Stringer("rgb", rgb).Stringer("grb", grb).Int("index", st.Buffer.Cursor()).Msg("pixel")

	complete, err := st.Buffer.Append(grb)
	if err != nil {
		return err
	}
	if !complete {
		return nil
	}
	if err := st.Buffer.Flush(m.out); err != nil {
		m.log.Warn().Err(err).Msg("push frame failed")
	}
	return m.clk.Sleep(ctx, m.opts.FrameDelay)
}

// readNotification reads three big-endian int32s: color, interval in ms and
// repeat count.
func (m *Machine) readNotification(st *State) error {
	var words [3]int32
	var raw [4]byte
	for w := range words {
		for i := range raw {
			c, err := m.src.ReadByte(m.opts.ByteTimeout)
			if errors.Is(err, receiver.ErrTimeout) {
				m.log.Info().Msg("notification timeout")
				m.transition(st, Idle)
				return nil
			}
			if err != nil {
				return err
			}
			raw[i] = c
		}
		words[w] = int32(binary.BigEndian.Uint32(raw[:]))
	}
	n := Notification{
		Color:    pixel.RGB(uint32(words[0]) & 0xFFFFFF),
		Interval: time.Duration(max(words[1], 0)) * time.Millisecond,
		Repeat:   int(max(words[2], 0)),
	}
	st.Pending = n
	m.log.Debug().Stringer("color", n.Color).Dur("interval", n.Interval).Int("repeat", n.Repeat).Msg("notification")
	m.transition(st, Notify)
	return nil
}

// notify blinks the pending notification one repetition at a time. Between
// repetitions an 'i' cancels the rest; other bytes are dropped.
func (m *Machine) notify(ctx context.Context, st *State) error {
	n := st.Pending
	for j := 0; j < n.Repeat; j++ {
		if err := effect.Blink(ctx, m.out, m.clk, n.Color, 1, n.Interval); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.log.Warn().Err(err).Msg("blink failed")
		}
		if j == n.Repeat-1 {
			break
		}
		c, ok, err := m.src.TryReadByte()
		if err != nil {
			return err
		}
		if ok && c == CmdIdle {
			m.log.Info().Int("done", j+1).Int("repeat", n.Repeat).Msg("notification cancelled")
			break
		}
	}
	st.Pending = Notification{}
	m.transition(st, Idle)
	return nil
}

func (m *Machine) audi(ctx context.Context, st *State) error {
	if err := effect.Chase(ctx, m.out, m.clk, m.opts.AudiColor); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.log.Warn().Err(err).Msg("chase failed")
	}
	return m.poll(st)
}

func (m *Machine) party(ctx context.Context, st *State) error {
	if err := effect.PartyStep(ctx, m.out, m.clk, &st.Palette); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.log.Warn().Err(err).Msg("party step failed")
	}
	return m.poll(st)
}

// poll checks for a command between animation steps. Only 'i' and 'n' are
// honoured from a looping animation.
func (m *Machine) poll(st *State) error {
	c, ok, err := m.src.TryReadByte()
	if err != nil || !ok {
		return err
	}
	switch c {
	case CmdIdle:
		m.transition(st, Idle)
	case CmdNotify:
		return m.readNotification(st)
	}
	return nil
}
