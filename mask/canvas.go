// Package mask is the interactive binary mask editor: brush strokes stamped onto a
// canvas the size of a target image, shown over it, then exported as PNG and .npy.
package mask

import (
	"image"
	"image/color"
)

// Radius is the brush radius in pixels.
const Radius = 10

// Overlay is the colour painted over masked pixels.
var Overlay = color.NRGBA{R: 200, G: 0, B: 255, A: 255}

// Canvas is a binary mask. Every element of Pix is 0 or 1.
type Canvas struct {
	Width  int
	Height int
	Pix    []uint8
}

func NewCanvas(width, height int) *Canvas {
	return &Canvas{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

func (c *Canvas) At(x, y int) uint8 {
	return c.Pix[y*c.Width+x]
}

// Stamp sets every pixel within radius r of (x, y) to 1. Pixels outside the canvas are ignored.
func (c *Canvas) Stamp(x, y, r int) {
	x0, x1 := max(x-r, 0), min(x+r, c.Width-1)
	y0, y1 := max(y-r, 0), min(y+r, c.Height-1)
	for py := y0; py <= y1; py++ {
		dy := py - y
		for px := x0; px <= x1; px++ {
			dx := px - x
			if dx*dx+dy*dy <= r*r {
				c.Pix[py*c.Width+px] = 1
			}
		}
	}
}

// Count is the number of masked pixels.
func (c *Canvas) Count() int {
	n := 0
	for _, v := range c.Pix {
		n += int(v)
	}
	return n
}

// Compose draws img with masked pixels replaced by the overlay colour.
func (c *Canvas) Compose(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, c.Width, c.Height))
	for y := 0; y < c.Height; y++ {
		for x := 0; x < c.Width; x++ {
			if c.Pix[y*c.Width+x] == 1 {
				out.SetNRGBA(x, y, Overlay)
				continue
			}
			out.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}

// Gray is the mask scaled to 0/255.
func (c *Canvas) Gray() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, c.Width, c.Height))
	for i, v := range c.Pix {
		g.Pix[i] = v * 255
	}
	return g
}
