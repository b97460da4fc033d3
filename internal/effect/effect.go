// Package effect implements the strip animations: blink, the chase
// ("audi" blinker) and the rotating party palette.
//
// Every effect pushes whole frames through a frame.Pusher and holds between
// frames with a clock.Clock. A done context stops an effect at its next
// hold and the context error is returned. Colors are passed in wire order and encoded to
// device order here.
package effect

import (
	"context"
	"time"

	"github.com/coreman2200/npdrv/internal/clock"
	"github.com/coreman2200/npdrv/internal/frame"
	"github.com/coreman2200/npdrv/internal/pixel"
)

const (
	// ChaseStep is the hold after each chase frame.
	ChaseStep = 150 * time.Millisecond
	// PartyHold is the hold after each palette frame.
	PartyHold = 10 * time.Millisecond
)

// Blink alternates all-off and all-color frames reps times, holding delay
// after each frame.
func Blink(ctx context.Context, out frame.Pusher, clk clock.Clock, color pixel.RGB, reps int, delay time.Duration) error {
	lit := frame.Fill(pixel.ToDeviceOrder(color))
	for j := 0; j < reps; j++ {
		if err := out.PushFrame(frame.Off); err != nil {
			return err
		}
		if err := clk.Sleep(ctx, delay); err != nil {
			return err
		}
		if err := out.PushFrame(lit); err != nil {
			return err
		}
		if err := clk.Sleep(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}

// Chase lights pixels 0..i for i = 0..Size-1, one frame per step, then
// pushes an all-off frame. Size+1 frames in total, ChaseStep apart.
func Chase(ctx context.Context, out frame.Pusher, clk clock.Clock, color pixel.RGB) error {
	c := pixel.ToDeviceOrder(color)
	var cur frame.Frame
	for i := 0; i < frame.Size; i++ {
		cur = frame.Off
		for j := 0; j <= i; j++ {
			cur[j] = c
		}
		if err := out.PushFrame(cur); err != nil {
			return err
		}
		if err := clk.Sleep(ctx, ChaseStep); err != nil {
			return err
		}
	}
	if err := out.PushFrame(frame.Off); err != nil {
		return err
	}
	return clk.Sleep(ctx, ChaseStep)
}

// Palette is the party color ring, in device order.
type Palette [frame.Size]pixel.GRB

// DefaultPalette is the palette the party mode starts from.
func DefaultPalette() Palette {
	return Palette{
		0x00ff00,
		0xffff00,
		0xff00ff,
		0x0000ff,
		0x00ffff,
		0xffff00,
		0xff0000,
		0xff00ff,
	}
}

// Rotate shifts the palette left by one; element 0 moves to the end.
func (p *Palette) Rotate() {
	first := p[0]
	copy(p[:], p[1:])
	p[len(p)-1] = first
}

// PartyStep pushes the palette as a frame, holds PartyHold and rotates the
// palette once. Call it repeatedly to animate.
func PartyStep(ctx context.Context, out frame.Pusher, clk clock.Clock, p *Palette) error {
	if err := out.PushFrame(frame.Frame(*p)); err != nil {
		return err
	}
	if err := clk.Sleep(ctx, PartyHold); err != nil {
		return err
	}
	p.Rotate()
	return nil
}
