// Package pixel packs 8-bit color channels into 24-bit strip values and
// converts between the serial wire order (RGB) and the strip's device order (GRB).
package pixel

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// Lane offsets inside a packed 24-bit value.
const (
	highOffset uint8 = 0x10
	midOffset  uint8 = 0x08
	lowOffset  uint8 = 0x0
)

// RGB is a color in wire order: 0x00RRGGBB.
type RGB uint32

// GRB is a color in device (transmission) order: 0x00GGRRBB.
type GRB uint32

// Off is the all-channels-dark device value.
const Off GRB = 0

func setlane(c uint32, n uint8, off uint8) uint32 {
	var val uint32 = uint32(n) << off
	var mask uint32 = 0xFF << off
	return (c & (^mask)) | val
}

func getlane(c uint32, off uint8) uint8 {
	var mask uint32 = 0xFF << off
	return uint8((c & mask) >> off)
}

// Pack builds a wire-order color from its channels.
func Pack(r, g, b uint8) RGB {
	var v uint32
	v = setlane(v, r, highOffset)
	v = setlane(v, g, midOffset)
	v = setlane(v, b, lowOffset)
	return RGB(v)
}

// Channels returns the red, green and blue lanes.
func (c RGB) Channels() (r, g, b uint8) {
	v := uint32(c)
	return getlane(v, highOffset), getlane(v, midOffset), getlane(v, lowOffset)
}

// Channels returns the red, green and blue lanes of a device-order value.
func (c GRB) Channels() (r, g, b uint8) {
	v := uint32(c)
	return getlane(v, midOffset), getlane(v, highOffset), getlane(v, lowOffset)
}

func (c RGB) String() string { return fmt.Sprintf("%06x", uint32(c)&0xFFFFFF) }
func (c GRB) String() string { return fmt.Sprintf("%06x", uint32(c)&0xFFFFFF) }

// ToDeviceOrder swaps the red and green lanes: (r,g,b) -> (g,r,b).
// Bits above the low 24 are dropped.
func ToDeviceOrder(c RGB) GRB {
	r, g, b := c.Channels()
	var v uint32
	v = setlane(v, g, highOffset)
	v = setlane(v, r, midOffset)
	v = setlane(v, b, lowOffset)
	return GRB(v)
}

// FromDeviceOrder is the inverse of ToDeviceOrder.
func FromDeviceOrder(c GRB) RGB {
	r, g, b := c.Channels()
	return Pack(r, g, b)
}

// ParseHex reads "#rrggbb" (or "#rgb") into a wire-order color.
func ParseHex(s string) (RGB, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return 0, fmt.Errorf("parse color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return Pack(r, g, b), nil
}
