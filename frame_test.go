package livegan

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSideBySide(t *testing.T) {
	left := solidImage(5, 4, color.NRGBA{R: 255, A: 255})
	right := solidImage(4, 4, color.NRGBA{B: 255, A: 255})

	out := SideBySide(left, right)
	assert.Equal(t, image.Rect(0, 0, 9, 4), out.Bounds())
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, out.NRGBAAt(4, 3))
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, out.NRGBAAt(5, 0))
}

func TestMirror(t *testing.T) {
	img := solidImage(3, 1, color.NRGBA{A: 255})
	img.SetNRGBA(0, 0, color.NRGBA{G: 255, A: 255})

	out := Mirror(img)
	assert.Equal(t, color.NRGBA{G: 255, A: 255}, out.NRGBAAt(2, 0))
	assert.Equal(t, color.NRGBA{A: 255}, out.NRGBAAt(0, 0))
}

func TestResizeKeepsMatchingFrames(t *testing.T) {
	img := solidImage(4, 3, color.Black)
	assert.Same(t, img, ResizeTo(img, 4, 3).(*image.NRGBA))
	assert.Equal(t, image.Rect(0, 0, 8, 6), ResizeTo(img, 8, 6).Bounds())
	assert.Equal(t, image.Rect(0, 0, 6, 6), ResizeSquare(img, 6).Bounds())
}
