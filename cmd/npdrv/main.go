package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tarm/serial"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/npdrv/internal/clock"
	"github.com/coreman2200/npdrv/internal/config"
	"github.com/coreman2200/npdrv/internal/led"
	"github.com/coreman2200/npdrv/internal/mode"
	"github.com/coreman2200/npdrv/internal/monitor"
	"github.com/coreman2200/npdrv/internal/pixel"
	"github.com/coreman2200/npdrv/internal/receiver"
)

func main() {
	// ---- Flags (config.yaml overrides where set) ----
	var (
		configPath  = flag.String("config", "config.yaml", "path to config.yaml")
		port        = flag.String("port", "/dev/ttyACM0", "serial device carrying pixel data")
		baud        = flag.Int("baud", 115200, "serial baud rate")
		driver      = flag.String("driver", "sim", "driver: sim | spi | console")
		spiDev      = flag.String("spi-dev", "", "periph SPI port name (empty = first)")
		monitorAddr = flag.String("monitor-addr", "", "HTTP listen address for the frame monitor (empty = off)")
		extended    = flag.Bool("extended", false, "route the a/n/i/p commands")
		fallthru    = flag.Bool("idle-fallthrough", false, "unknown bytes in idle read one pixel (legacy firmware behavior)")
		verbose     = flag.Bool("v", false, "debug logging, including per-pixel echo")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// ---- Load config.yaml (optional) ----
	cfg := config.Default()
	cfg.Serial.Port, cfg.Serial.Baud = *port, *baud
	cfg.Driver = *driver
	cfg.SPI.Dev = *spiDev
	cfg.Monitor.Addr = *monitorAddr
	cfg.Protocol.Extended = *extended
	cfg.Protocol.IdleFallthrough = *fallthru
	if c, err := config.LoadOver(*configPath, cfg); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Fatal().Err(err).Str("path", *configPath).Msg("config load failed")
		}
		log.Debug().Str("path", *configPath).Msg("no config file; using flags")
	} else {
		cfg = c
	}

	audi, err := pixel.ParseHex(cfg.Protocol.AudiColor)
	if err != nil {
		log.Fatal().Err(err).Msg("protocol.audi_color")
	}

	// ---- Serial, then driver ----
	sp, drv, err := openIO(cfg, openSerial, openDriver)
	if err != nil {
		log.Fatal().Err(err).Str("port", cfg.Serial.Port).Msg("open serial")
	}
	rx := receiver.New(sp)
	defer rx.Close()
	log.Info().Str("port", cfg.Serial.Port).Int("baud", cfg.Serial.Baud).Msg("serial open")

	var mon *monitor.Monitor
	if cfg.Monitor.Addr != "" {
		mon = monitor.New(drv, log.Logger)
		drv = mon
	}
	defer drv.Close()

	opts := mode.Options{
		ByteTimeout:      cfg.Protocol.ByteTimeout(),
		FrameDelay:       cfg.Protocol.FrameDelay(),
		ExtendedCommands: cfg.Protocol.Extended,
		IdleFallthrough:  cfg.Protocol.IdleFallthrough,
		AudiColor:        audi,
	}
	if mon != nil {
		opts.OnTransition = func(from, to mode.Mode) { mon.ObserveTransition(from.String(), to.String()) }
	}
	m := mode.New(rx, drv, clock.Real{}, opts, log.Logger.With().Str("component", "mode").Logger())

	// ---- Monitor server ----
	var srv *http.Server
	if mon != nil {
		srv = &http.Server{
			Addr:         cfg.Monitor.Addr,
			Handler:      mon.Handler(),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			log.Info().Str("addr", cfg.Monitor.Addr).Msg("monitor starting")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("monitor server stopped")
			}
		}()
	}

	// ---- Run until signalled ----
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := m.Run(ctx); err != nil {
		log.Error().Err(err).Msg("dispatch loop stopped")
	} else {
		log.Info().Msg("shutting down")
	}
	if srv != nil {
		_ = srv.Close()
	}
}

func openSerial(c *serial.Config) (io.ReadWriteCloser, error) {
	return serial.OpenPort(c)
}

// openIO opens the serial port first and the strip driver only once that
// succeeded, so a bad port never leaves an opened device behind.
func openIO(cfg *config.Config,
	port func(*serial.Config) (io.ReadWriteCloser, error),
	driver func(*config.Config) led.Driver,
) (io.ReadWriteCloser, led.Driver, error) {
	sp, err := port(&serial.Config{Name: cfg.Serial.Port, Baud: cfg.Serial.Baud})
	if err != nil {
		return nil, nil, err
	}
	return sp, driver(cfg), nil
}

// openDriver picks the output sink; SPI failure falls back to the console.
func openDriver(cfg *config.Config) led.Driver {
	switch cfg.Driver {
	case "sim":
		return led.NewSim(log.Logger)
	case "console":
		return led.NewConsole()
	case "spi":
		drv, err := led.OpenSPI(cfg.SPI.Dev, physic.Frequency(cfg.SPI.FreqKHz)*physic.KiloHertz)
		if err != nil {
			log.Warn().Err(err).
				Str("driver", "spi").
				Str("dev", cfg.SPI.Dev).
				Int("freq_khz", cfg.SPI.FreqKHz).
				Msg("SPI init failed; falling back to console")
			return led.NewConsole()
		}
		log.Info().Str("dev", drv.String()).Msg("SPI driver ready")
		return drv
	default:
		log.Warn().Str("driver", cfg.Driver).Msg("unknown driver; using sim")
		return led.NewSim(log.Logger)
	}
}
