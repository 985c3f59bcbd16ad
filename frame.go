package livegan

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

// Mirror flips a frame horizontally.
func Mirror(img image.Image) *image.NRGBA {
	return imaging.FlipH(img)
}

// ResizeTo scales img to exactly width x height with bilinear filtering.
// A frame already at that size is returned unchanged.
func ResizeTo(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return img
	}
	return resize.Resize(uint(width), uint(height), img, resize.Bilinear)
}

// ResizeSquare scales a synthesized frame to size x size with bicubic filtering.
func ResizeSquare(img image.Image, size int) image.Image {
	b := img.Bounds()
	if b.Dx() == size && b.Dy() == size {
		return img
	}
	return resize.Resize(uint(size), uint(size), img, resize.Bicubic)
}

// SideBySide pastes left and right next to each other, top aligned.
func SideBySide(left, right image.Image) *image.NRGBA {
	lb, rb := left.Bounds(), right.Bounds()
	height := lb.Dy()
	if rb.Dy() > height {
		height = rb.Dy()
	}
	dst := imaging.New(lb.Dx()+rb.Dx(), height, color.NRGBA{0, 0, 0, 255})
	dst = imaging.Paste(dst, left, image.Pt(0, 0))
	dst = imaging.Paste(dst, right, image.Pt(lb.Dx(), 0))
	return dst
}
