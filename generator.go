package livegan

import (
	"fmt"
	"image"
	"image/color"

	"github.com/sirupsen/logrus"
)

// ModelInfo is the model.json descriptor shipped with a generator bundle.
type ModelInfo struct {
	Name              string    `json:"name"`
	ZDim              int       `json:"z_dim"`
	WDim              int       `json:"w_dim"`
	CDim              int       `json:"c_dim"`
	NumWs             int       `json:"num_ws"`
	Resolution        int       `json:"img_resolution"`
	WAvg              []float64 `json:"w_avg"`
	Mapping           string    `json:"mapping"`
	Synthesis         string    `json:"synthesis"`
	SynthesisAnchored string    `json:"synthesis_anchored,omitempty"`
}

// Validate checks the descriptor dimensions are usable.
func (m ModelInfo) Validate() error {
	switch {
	case m.ZDim <= 0 || m.WDim <= 0 || m.NumWs <= 0 || m.Resolution <= 0:
		return fmt.Errorf("model %q has invalid dimensions z=%d w=%d num_ws=%d res=%d", m.Name, m.ZDim, m.WDim, m.NumWs, m.Resolution)
	case m.CDim < 0:
		return fmt.Errorf("model %q has negative c_dim", m.Name)
	case len(m.WAvg) != m.WDim:
		return fmt.Errorf("model %q w_avg has %d values, want %d", m.Name, len(m.WAvg), m.WDim)
	case m.Mapping == "" || m.Synthesis == "":
		return fmt.Errorf("model %q does not name its mapping and synthesis graphs", m.Name)
	}
	return nil
}

// Generator is a loaded image-synthesis model.
type Generator interface {
	Info() ModelInfo
	// Mapping maps z to w, truncated toward the model's average latent by psi.
	Mapping(z Latent, label []float32, psi float64) (Dlatent, error)
	// Synthesis renders w into a 3 x R x R tensor in RGB order with values in [-1, 1].
	Synthesis(w Dlatent, noise NoiseMode) (Tensor, error)
}

// ClassLabel builds the one-hot conditioning vector. Conditional models need a class;
// unconditional ones ignore it with a warning.
func ClassLabel(info ModelInfo, classIdx *int, log logrus.FieldLogger) ([]float32, error) {
	label := make([]float32, info.CDim)
	if info.CDim == 0 {
		if classIdx != nil {
			log.Warn("--class ignored when running on an unconditional network")
		}
		return label, nil
	}
	if classIdx == nil {
		return nil, fmt.Errorf("%w: must specify a class label with --class when using a conditional network", ErrConfiguration)
	}
	if *classIdx < 0 || *classIdx >= info.CDim {
		return nil, fmt.Errorf("%w: class %d out of range [0, %d)", ErrConfiguration, *classIdx, info.CDim)
	}
	label[*classIdx] = 1
	return label, nil
}

// Warmup runs one untimed mapping and synthesis pass so one-time initialization
// does not land on the first measured frame.
func Warmup(g Generator, seed int64) error {
	info := g.Info()
	w, err := g.Mapping(SeededLatent(seed, info.ZDim), make([]float32, info.CDim), 1.0)
	if err != nil {
		return fmt.Errorf("warm-up mapping: %w", err)
	}
	if _, err := g.Synthesis(w, NoiseConst); err != nil {
		return fmt.Errorf("warm-up synthesis: %w", err)
	}
	return nil
}

// Renderer turns composed latents into images: it recenters/truncates around the
// configured center, synthesizes, and converts the network output to pixels.
type Renderer struct {
	Generator Generator
	Center    Dlatent
	Psi       float64
	Noise     NoiseMode
}

func (r *Renderer) Render(w Dlatent) (*image.NRGBA, error) {
	w, err := Truncate(w, r.Center, r.Psi)
	if err != nil {
		return nil, err
	}
	out, err := r.Generator.Synthesis(w, r.Noise)
	if err != nil {
		return nil, fmt.Errorf("synthesis: %w", err)
	}
	return TensorToImage(out)
}

// TensorToImage maps a 3 x H x W RGB tensor in [-1, 1] to 8-bit pixels.
func TensorToImage(t Tensor) (*image.NRGBA, error) {
	if t.Channels != 3 {
		return nil, fmt.Errorf("synthesized tensor has %d channels, want 3", t.Channels)
	}
	img := image.NewNRGBA(image.Rect(0, 0, t.Width, t.Height))
	for y := 0; y < t.Height; y++ {
		for x := 0; x < t.Width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: toByte(t.At(0, y, x)),
				G: toByte(t.At(1, y, x)),
				B: toByte(t.At(2, y, x)),
				A: 255,
			})
		}
	}
	return img, nil
}

func toByte(v float32) uint8 {
	f := (v + 1) * 255 / 2
	if f <= 0 {
		return 0
	}
	if f >= 255 {
		return 255
	}
	return uint8(f)
}
