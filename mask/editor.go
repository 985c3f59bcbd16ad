package mask

import (
	"fmt"
	"image"

	"github.com/sirupsen/logrus"
)

// KeyQuit ends an editing session.
const KeyQuit = 'q'

type EventKind int

const (
	Press EventKind = iota
	Move
	Release
)

// Event is a pointer event in image coordinates.
type Event struct {
	Kind EventKind
	X, Y int
}

// Tracker turns pointer events into brush stamps. A press starts a stroke without
// stamping, moves stamp while the stroke lasts and the release stamps once more.
type Tracker struct {
	Canvas  *Canvas
	Radius  int
	drawing bool
}

func NewTracker(c *Canvas) *Tracker {
	return &Tracker{Canvas: c, Radius: Radius}
}

func (t *Tracker) Drawing() bool {
	return t.drawing
}

// Handle applies ev and reports whether the canvas may have changed.
func (t *Tracker) Handle(ev Event) bool {
	switch ev.Kind {
	case Press:
		t.drawing = true
	case Move:
		if t.drawing {
			t.Canvas.Stamp(ev.X, ev.Y, t.Radius)
			return true
		}
	case Release:
		t.drawing = false
		t.Canvas.Stamp(ev.X, ev.Y, t.Radius)
		return true
	}
	return false
}

// Surface shows the composite and delivers keys. Pointer events reach the editor
// through Editor.Handle, which a surface calls from its own callback while WaitKey runs.
type Surface interface {
	Show(img image.Image) error
	WaitKey(delayMs int) int
}

// Editor runs the draw loop for one target image.
type Editor struct {
	Target  image.Image
	Canvas  *Canvas
	Tracker *Tracker
	Log     logrus.FieldLogger
}

func NewEditor(target image.Image, log logrus.FieldLogger) *Editor {
	b := target.Bounds()
	c := NewCanvas(b.Dx(), b.Dy())
	return &Editor{
		Target:  target,
		Canvas:  c,
		Tracker: NewTracker(c),
		Log:     log,
	}
}

// Handle applies a pointer event to the mask. It must be called on the goroutine that runs Run.
func (e *Editor) Handle(ev Event) {
	e.Tracker.Handle(ev)
}

// Run shows the target with the mask overlay until KeyQuit is pressed.
func (e *Editor) Run(s Surface) error {
	for {
		if err := s.Show(e.Canvas.Compose(e.Target)); err != nil {
			return fmt.Errorf("display: %w", err)
		}
		if k := s.WaitKey(1); k >= 0 && k&0xFF == KeyQuit {
			e.Log.WithField("pixels", e.Canvas.Count()).Info("Mask finished")
			return nil
		}
	}
}
