package livegan

import (
	"errors"
	"image"
	"image/color"
	"io"

	"github.com/sirupsen/logrus"
)

// spyGenerator fills every w value with z[0] and renders a flat image from w[0][0].
type spyGenerator struct {
	info     ModelInfo
	calls    []mappingCall
	synths   int
	rendered []Dlatent
	lastW    Dlatent
	lastMode NoiseMode
}

type mappingCall struct {
	z     Latent
	label []float32
	psi   float64
}

func newSpyGenerator() *spyGenerator {
	return &spyGenerator{info: ModelInfo{
		Name:       "spy",
		ZDim:       4,
		WDim:       2,
		NumWs:      16,
		Resolution: 4,
		WAvg:       []float64{0, 0},
		Mapping:    "mapping.onnx",
		Synthesis:  "synthesis.onnx",
	}}
}

func (g *spyGenerator) Info() ModelInfo {
	return g.info
}

func (g *spyGenerator) Mapping(z Latent, label []float32, psi float64) (Dlatent, error) {
	g.calls = append(g.calls, mappingCall{z: append(Latent(nil), z...), label: label, psi: psi})
	w := NewDlatent(g.info.NumWs, g.info.WDim)
	for i := range w {
		for j := range w[i] {
			w[i][j] = z[0]
		}
	}
	return w, nil
}

func (g *spyGenerator) Synthesis(w Dlatent, noise NoiseMode) (Tensor, error) {
	g.synths++
	g.lastW = w.Clone()
	g.rendered = append(g.rendered, g.lastW)
	g.lastMode = noise
	res := g.info.Resolution
	t := NewTensor(3, res, res)
	for i := range t.Data {
		t.Data[i] = float32(w[0][0])
	}
	return t, nil
}

// stubExtractor returns a constant map per call, cycling through values.
type stubExtractor struct {
	channels int
	height   int
	width    int
	values   []float32
	calls    int
	inputs   []Tensor
}

func (s *stubExtractor) Features(input Tensor, layers []string) ([]Tensor, error) {
	s.inputs = append(s.inputs, input)
	t := NewTensor(s.channels, s.height, s.width)
	v := s.values[s.calls%len(s.values)]
	for i := range t.Data {
		t.Data[i] = v
	}
	s.calls++
	out := make([]Tensor, len(layers))
	for i := range layers {
		out[i] = t
	}
	return out, nil
}

// fakeCamera yields its frames in order, then reports the device closed.
type fakeCamera struct {
	frames []image.Image
	errs   []error
	pos    int
	closed bool
}

func (c *fakeCamera) Read() (image.Image, error) {
	if c.pos >= len(c.frames) {
		return nil, ErrCameraClosed
	}
	i := c.pos
	c.pos++
	if i < len(c.errs) && c.errs[i] != nil {
		return nil, c.errs[i]
	}
	return c.frames[i], nil
}

func (c *fakeCamera) Close() error {
	c.closed = true
	return nil
}

// fakeDisplay records shown frames and replays keys, one per WaitKey call.
type fakeDisplay struct {
	shown  []image.Image
	keys   []int
	waits  int
	closed bool
}

func (d *fakeDisplay) Show(img image.Image) error {
	d.shown = append(d.shown, img)
	return nil
}

func (d *fakeDisplay) WaitKey(int) int {
	i := d.waits
	d.waits++
	if i < len(d.keys) {
		return d.keys[i]
	}
	return -1
}

func (d *fakeDisplay) Close() error {
	d.closed = true
	return nil
}

// fakeWriter records frames written to one clip.
type fakeWriter struct {
	path   string
	width  int
	height int
	frames int
	closed int
	events *[]string
}

func (w *fakeWriter) Write(img image.Image) error {
	w.frames++
	if w.events != nil {
		*w.events = append(*w.events, "write")
	}
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed++
	if w.events != nil {
		*w.events = append(*w.events, "close")
	}
	return nil
}

// writerSpy is a WriterFactory that keeps every writer it opens.
type writerSpy struct {
	writers []*fakeWriter
	fail    bool
	events  []string
}

func (s *writerSpy) open(path string, fps float64, width, height int) (VideoWriter, error) {
	if s.fail {
		return nil, errors.New("codec unavailable")
	}
	s.events = append(s.events, "open")
	w := &fakeWriter{path: path, width: width, height: height, events: &s.events}
	s.writers = append(s.writers, w)
	return w, nil
}

// clipList names clips clip-0.mp4, clip-1.mp4 and so on.
type clipList struct {
	n int
}

func (c *clipList) NextClip() (string, error) {
	name := "clip-" + string(rune('0'+c.n)) + ".mp4"
	c.n++
	return name, nil
}

func solidImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
