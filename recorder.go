package livegan

import (
	"fmt"
	"image"

	"github.com/sirupsen/logrus"
)

// VideoWriter appends frames to an open video file.
type VideoWriter interface {
	Write(img image.Image) error
	Close() error
}

// WriterFactory opens a writer for frames of exactly width x height.
type WriterFactory func(path string, fps float64, width, height int) (VideoWriter, error)

// ClipNamer hands out the path of the next recording.
type ClipNamer interface {
	NextClip() (string, error)
}

// Recorder is the idle/recording toggle around a VideoWriter.
// The zero state is idle; Close must be deferred by the owner.
type Recorder struct {
	open  WriterFactory
	fps   int
	clips ClipNamer
	log   logrus.FieldLogger

	// AfterClose, when set, runs on every finished clip.
	AfterClose func(path string)

	writer VideoWriter
	path   string
	size   image.Point
}

func NewRecorder(open WriterFactory, fps int, clips ClipNamer, log logrus.FieldLogger) *Recorder {
	return &Recorder{
		open:  open,
		fps:   fps,
		clips: clips,
		log:   log,
	}
}

// Recording reports whether a writer is open.
func (r *Recorder) Recording() bool {
	return r.writer != nil
}

// Path is the clip being written, empty while idle.
func (r *Recorder) Path() string {
	return r.path
}

// Toggle opens a writer sized width x height when idle, or closes the open one.
// A writer that cannot be opened leaves the recorder idle and returns ErrRecording.
func (r *Recorder) Toggle(width, height int) error {
	if r.Recording() {
		return r.Close()
	}

	path, err := r.clips.NextClip()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRecording, err)
	}
	w, err := r.open(path, float64(r.fps), width, height)
	if err != nil {
		return fmt.Errorf("%w: cannot open %s: %w", ErrRecording, path, err)
	}

	r.writer = w
	r.path = path
	r.size = image.Pt(width, height)
	r.log.WithFields(logrus.Fields{
		"path":   path,
		"width":  width,
		"height": height,
		"fps":    r.fps,
	}).Info("Recording started")
	return nil
}

// Write appends img while recording and is a no-op while idle.
func (r *Recorder) Write(img image.Image) error {
	if !r.Recording() {
		return nil
	}
	if b := img.Bounds(); b.Dx() != r.size.X || b.Dy() != r.size.Y {
		return fmt.Errorf("%w: frame is %dx%d, writer expects %dx%d", ErrRecording, b.Dx(), b.Dy(), r.size.X, r.size.Y)
	}
	if err := r.writer.Write(img); err != nil {
		return fmt.Errorf("%w: %w", ErrRecording, err)
	}
	return nil
}

// Close releases the writer if one is open. Calling it while idle does nothing.
func (r *Recorder) Close() error {
	if !r.Recording() {
		return nil
	}
	w, path := r.writer, r.path
	r.writer = nil
	r.path = ""
	r.size = image.Point{}

	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %w", ErrRecording, path, err)
	}
	r.log.WithField("path", path).Info("Recording saved")
	if r.AfterClose != nil {
		r.AfterClose(path)
	}
	return nil
}
