package pixel_test

import (
	"testing"

	"pgregory.net/rapid"

	. "github.com/coreman2200/npdrv/internal/pixel"
)

func TestDeviceOrderProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := rapid.Uint8().Draw(t, "r")
		g := rapid.Uint8().Draw(t, "g")
		b := rapid.Uint8().Draw(t, "b")

		c := Pack(r, g, b)
		d := ToDeviceOrder(c)
		if uint32(d) != uint32(g)<<16|uint32(r)<<8|uint32(b) {
			t.Fatalf("ToDeviceOrder(%v) = %v", c, d)
		}
		if back := FromDeviceOrder(d); back != c {
			t.Fatalf("round trip %v -> %v -> %v", c, d, back)
		}
		dr, dg, db := d.Channels()
		if dr != r || dg != g || db != b {
			t.Fatalf("channels of %v = %d,%d,%d", d, dr, dg, db)
		}
	})
}
