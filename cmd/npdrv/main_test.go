package main

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tarm/serial"

	"github.com/coreman2200/npdrv/internal/config"
	"github.com/coreman2200/npdrv/internal/driver/fake"
	"github.com/coreman2200/npdrv/internal/led"
)

type nopPort struct{}

func (nopPort) Read([]byte) (int, error)    { return 0, io.EOF }
func (nopPort) Write(p []byte) (int, error) { return len(p), nil }
func (nopPort) Close() error                { return nil }

func TestOpenIOSkipsDriverWhenSerialFails(t *testing.T) {
	boom := errors.New("no such port")
	opened := false
	driver := func(*config.Config) led.Driver {
		opened = true
		return &fake.Driver{}
	}
	port := func(*serial.Config) (io.ReadWriteCloser, error) { return nil, boom }

	sp, drv, err := openIO(config.Default(), port, driver)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, sp)
	assert.Nil(t, drv)
	assert.False(t, opened, "driver must not be opened after a serial failure")
}

func TestOpenIOPassesSerialSettings(t *testing.T) {
	cfg := config.Default()
	cfg.Serial.Port, cfg.Serial.Baud = "/dev/ttyUSB3", 57600

	var got *serial.Config
	port := func(c *serial.Config) (io.ReadWriteCloser, error) {
		got = c
		return nopPort{}, nil
	}
	want := &fake.Driver{}

	sp, drv, err := openIO(cfg, port, func(*config.Config) led.Driver { return want })
	require.NoError(t, err)
	assert.NotNil(t, sp)
	assert.Same(t, want, drv)
	assert.Equal(t, "/dev/ttyUSB3", got.Name)
	assert.Equal(t, 57600, got.Baud)
}
