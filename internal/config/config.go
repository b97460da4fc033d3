package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Serial struct {
	Port string `yaml:"port"` // e.g. /dev/ttyACM0
	Baud int    `yaml:"baud"`
}

type SPI struct {
	Dev     string `yaml:"dev"`      // periph port name, "" = first available
	FreqKHz int    `yaml:"freq_khz"` // e.g. 2500
}

type Protocol struct {
	ByteTimeoutUs   int    `yaml:"byte_timeout_us"`
	FrameDelayMs    int    `yaml:"frame_delay_ms"`
	Extended        bool   `yaml:"extended_commands"`
	IdleFallthrough bool   `yaml:"idle_fallthrough"`
	AudiColor       string `yaml:"audi_color"` // "#rrggbb"
}

type Monitor struct {
	Addr string `yaml:"addr"` // empty disables the websocket monitor
}

type Config struct {
	Driver   string   `yaml:"driver"` // "sim" | "spi" | "console"
	Serial   Serial   `yaml:"serial"`
	SPI      SPI      `yaml:"spi,omitempty"`
	Protocol Protocol `yaml:"protocol"`
	Monitor  Monitor  `yaml:"monitor,omitempty"`
}

// Default is the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Driver: "sim",
		Serial: Serial{Port: "/dev/ttyACM0", Baud: 115200},
		SPI:    SPI{FreqKHz: 2500},
		Protocol: Protocol{
			ByteTimeoutUs: 1000000,
			FrameDelayMs:  15,
			AudiColor:     "#ff6400",
		},
	}
}

func (p Protocol) ByteTimeout() time.Duration {
	return time.Duration(p.ByteTimeoutUs) * time.Microsecond
}

func (p Protocol) FrameDelay() time.Duration {
	return time.Duration(p.FrameDelayMs) * time.Millisecond
}

// Load reads path over the defaults; keys missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	return LoadOver(path, Default())
}

// LoadOver reads path over a copy of base. Only keys present in the file
// replace base values.
func LoadOver(path string, base *Config) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := *base
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
