package cv

import (
	"image"

	"github.com/livegan/mask"
	"gocv.io/x/gocv"
)

// OpenCV mouse event codes.
const (
	mouseMove     = 0
	mouseLeftDown = 1
	mouseLeftUp   = 4
)

// Window is a named OpenCV display window.
type Window struct {
	window *gocv.Window
}

func NewWindow(title string) *Window {
	return &Window{window: gocv.NewWindow(title)}
}

func (w *Window) Show(img image.Image) error {
	frame, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return err
	}
	defer frame.Close()
	w.window.IMShow(frame)
	return nil
}

// WaitKey pumps window events for delayMs and returns the low byte of the key pressed, or -1.
func (w *Window) WaitKey(delayMs int) int {
	k := w.window.WaitKey(delayMs)
	if k < 0 {
		return -1
	}
	return k & 0xFF
}

// OnPointer forwards left button presses, releases and pointer moves to fn.
func (w *Window) OnPointer(fn func(mask.Event)) {
	w.window.SetMouseHandler(func(event, x, y, flags int, userdata interface{}) {
		switch event {
		case mouseLeftDown:
			fn(mask.Event{Kind: mask.Press, X: x, Y: y})
		case mouseMove:
			fn(mask.Event{Kind: mask.Move, X: x, Y: y})
		case mouseLeftUp:
			fn(mask.Event{Kind: mask.Release, X: x, Y: y})
		}
	}, nil)
}

func (w *Window) Close() error {
	return w.window.Close()
}
