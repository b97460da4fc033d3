package led

import (
	"image"
	"image/color"

	"periph.io/x/extra/devices/screen"

	"github.com/coreman2200/npdrv/internal/frame"
)

// drawer is the part of a periph display the console driver needs.
type drawer interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
	Halt() error
}

// Console prints each frame as a row of colored blocks on the terminal.
type Console struct {
	d   drawer
	img *image.NRGBA
}

func NewConsole() *Console {
	return newConsole(screen.New(frame.Size))
}

func newConsole(d drawer) *Console {
	return &Console{d: d, img: image.NewNRGBA(image.Rect(0, 0, frame.Size, 1))}
}

func (c *Console) PushFrame(f frame.Frame) error {
	for i, p := range f {
		r, g, b := p.Channels()
		c.img.SetNRGBA(i, 0, color.NRGBA{R: r, G: g, B: b, A: 255})
	}
	return c.d.Draw(c.d.Bounds(), c.img, image.Point{})
}

func (c *Console) Close() error { return c.d.Halt() }
