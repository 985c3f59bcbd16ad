package livegan

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/sirupsen/logrus"
)

// Keys understood by the live loop.
const (
	KeyEscape = 27
	KeySpace  = 32
)

// Camera yields frames. Read returns ErrCapture for a failed read and
// ErrCameraClosed once the device is gone.
type Camera interface {
	Read() (image.Image, error)
	Close() error
}

// Display shows frames and reports key presses. WaitKey returns -1 when no key was pressed.
type Display interface {
	Show(img image.Image) error
	WaitKey(delayMs int) int
	Close() error
}

// LoopConfig is the part of Config the frame loop needs once the model is loaded.
type LoopConfig struct {
	Mirror        bool
	WorkWidth     int
	WorkHeight    int
	Layer         string
	Display       DisplayMode
	DisplayHeight int
	Verbose       bool
}

// FrameLoop is the capture, synthesize, display and record cycle.
type FrameLoop struct {
	Camera    Camera
	Display   Display
	Extractor FeatureExtractor
	Composer  Composer
	Renderer  *Renderer
	Recorder  *Recorder
	Config    LoopConfig
	Log       logrus.FieldLogger

	// Now is the clock used for the FPS report; time.Now when nil.
	Now func() time.Time

	state SmoothingState
	fps   fpsMeter
}

// State is the smoothing state after the last processed frame.
func (l *FrameLoop) State() SmoothingState {
	return l.state
}

// Run loops until escape is pressed, the camera closes, ctx is cancelled or a frame
// cannot be processed. Camera, display and any open recording are released on every path.
func (l *FrameLoop) Run(ctx context.Context) error {
	defer func() {
		if cerr := l.Recorder.Close(); cerr != nil {
			l.Log.WithError(cerr).Warn("Could not finalize recording")
		}
		if cerr := l.Display.Close(); cerr != nil {
			l.Log.WithError(cerr).Warn("Could not close display")
		}
		if cerr := l.Camera.Close(); cerr != nil {
			l.Log.WithError(cerr).Warn("Could not release camera")
		}
	}()

	l.fps.reset(l.now())
	for {
		if ctx.Err() != nil {
			l.Log.Info("Interrupted, shutting down")
			return nil
		}

		img, err := l.Camera.Read()
		if errors.Is(err, ErrCameraClosed) {
			l.Log.Info("Camera closed")
			return nil
		}
		if err != nil {
			l.Log.WithError(err).Warn("Skipping frame")
			if l.Display.WaitKey(1) == KeyEscape {
				return nil
			}
			continue
		}

		out, err := l.Process(img)
		if err != nil {
			return err
		}
		if err := l.Display.Show(out); err != nil {
			return fmt.Errorf("display: %w", err)
		}

		if fps, ok := l.fps.tick(l.now()); ok && l.Config.Verbose {
			l.Log.Infof("FPS: %0.2f", fps)
		}

		switch l.Display.WaitKey(1) {
		case KeyEscape:
			return nil
		case KeySpace:
			b := out.Bounds()
			if err := l.Recorder.Toggle(b.Dx(), b.Dy()); err != nil {
				l.Log.WithError(err).Warn("Recording unavailable, continuing display only")
			}
		}

		if err := l.Recorder.Write(out); err != nil {
			l.Log.WithError(err).Warn("Recording stopped")
			if cerr := l.Recorder.Close(); cerr != nil {
				l.Log.WithError(cerr).Warn("Could not finalize recording")
			}
		}
	}
}

// Process runs one captured frame through the pipeline and returns the frame to display.
func (l *FrameLoop) Process(img image.Image) (image.Image, error) {
	if l.Config.Mirror {
		img = Mirror(img)
	}
	img = ResizeTo(img, l.Config.WorkWidth, l.Config.WorkHeight)

	input := ToTensor(img, l.Config.WorkWidth, l.Config.WorkHeight)
	features, err := l.Extractor.Features(input, []string{l.Config.Layer})
	if err != nil {
		return nil, fmt.Errorf("feature extraction: %w", err)
	}
	if len(features) != 1 {
		return nil, fmt.Errorf("feature extraction returned %d maps for one layer", len(features))
	}

	w, state, err := l.Composer.Compose(features[0], l.state)
	if err != nil {
		return nil, fmt.Errorf("latent composition: %w", err)
	}
	l.state = state

	synth, err := l.Renderer.Render(w)
	if err != nil {
		return nil, err
	}

	h := l.Config.DisplayHeight
	if l.Config.Display == DisplaySynthOnly {
		return ResizeSquare(synth, h), nil
	}
	return SideBySide(ResizeTo(img, FourThirds(h), h), ResizeSquare(synth, h)), nil
}

func (l *FrameLoop) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// fpsMeter counts frames over windows of at least one second.
type fpsMeter struct {
	start  time.Time
	frames int
}

func (m *fpsMeter) reset(now time.Time) {
	m.start = now
	m.frames = 0
}

// tick counts a frame and, once more than a second has elapsed, returns the rate and restarts.
func (m *fpsMeter) tick(now time.Time) (float64, bool) {
	m.frames++
	elapsed := now.Sub(m.start)
	if elapsed <= time.Second {
		return 0, false
	}
	fps := float64(m.frames) / elapsed.Seconds()
	m.reset(now)
	return fps, true
}
