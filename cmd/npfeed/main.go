// Command npfeed streams a rainbow hue sweep to an npdrv strip in raw mode.
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tarm/serial"

	"github.com/coreman2200/npdrv/internal/frame"
	"github.com/coreman2200/npdrv/internal/mode"
)

func main() {
	var (
		port     = flag.String("port", "/dev/ttyACM0", "serial device of the strip")
		baud     = flag.Int("baud", 115200, "serial baud rate")
		steps    = flag.Int("steps", 17, "hue steps per revolution")
		value    = flag.Float64("value", 0.9, "HSV value (brightness) 0..1")
		interval = flag.Duration("interval", 10*time.Millisecond, "pause between pixels")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if *steps <= 0 {
		log.Fatal().Int("steps", *steps).Msg("steps must be positive")
	}

	sp, err := serial.OpenPort(&serial.Config{Name: *port, Baud: *baud})
	if err != nil {
		log.Fatal().Err(err).Str("port", *port).Msg("open serial")
	}
	defer sp.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("port", *port).Int("steps", *steps).Float64("value", *value).Msg("streaming hue sweep")
	if err := feed(ctx, sp, sweep(*steps, *value), *interval); err != nil {
		log.Fatal().Err(err).Msg("write")
	}
	log.Info().Msg("stopped")
}

// sweep returns one RGB triple per hue step around the color wheel.
func sweep(steps int, value float64) [][3]byte {
	out := make([][3]byte, steps)
	for i := range out {
		r, g, b := colorful.Hsv(float64(i)*360/float64(steps), 1, value).RGB255()
		out[i] = [3]byte{r, g, b}
	}
	return out
}

// feed sends the raw command and then cycles through colors, one pixel per
// interval, until ctx is done. Pixels are sent in whole frames so the strip
// never times out mid-frame on a clean stop.
func feed(ctx context.Context, w io.Writer, colors [][3]byte, interval time.Duration) error {
	if _, err := w.Write([]byte{mode.CmdRaw}); err != nil {
		return err
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for i := 0; ; i++ {
		c := colors[i%len(colors)]
		if _, err := w.Write(c[:]); err != nil {
			return err
		}
		if (i+1)%frame.Size != 0 {
			<-t.C
			continue
		}
		if ctx.Err() != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}
