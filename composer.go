package livegan

import "fmt"

const (
	// averagedAlpha is the weight kept from the previous frame by the averaged strategy.
	averagedAlpha = 0.2
	// regionalAlpha is the weight kept from the previous frame by the regional strategy.
	regionalAlpha = 0.4

	// Layer boundaries for style mixing.
	coarseLayers = 4
	middleLayers = 8
)

// SmoothingState carries the previous frame's latent between Compose calls.
// The zero value is the state before the first frame.
type SmoothingState struct {
	Frames int
	PrevZ  Latent
	PrevW  Dlatent
}

// Composer turns one feature map into the w latent for one frame.
// It is a pure function of the previous state and the new observation.
type Composer interface {
	Compose(features Tensor, state SmoothingState) (Dlatent, SmoothingState, error)
}

// NewComposer builds the composer for a strategy. label conditions the mapping network;
// psi and seed are only used by the averaged strategy.
func NewComposer(strategy Strategy, g Generator, label []float32, psi float64, seed int64) (Composer, error) {
	switch strategy {
	case StrategyAveraged:
		info := g.Info()
		static, err := g.Mapping(SeededLatent(seed, info.ZDim), label, 1.0)
		if err != nil {
			return nil, fmt.Errorf("style-mixing latent for seed %d: %w", seed, err)
		}
		return &AveragedComposer{
			Generator: g,
			Label:     label,
			Psi:       psi,
			Static:    static,
			Alpha:     averagedAlpha,
			MixFrom:   coarseLayers,
		}, nil
	case StrategyRegional:
		return &RegionalComposer{
			Generator: g,
			Label:     label,
			Alpha:     regionalAlpha,
			CoarseEnd: coarseLayers,
			MiddleEnd: middleLayers,
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown strategy %v", ErrConfiguration, strategy)
}

// AveragedComposer averages the whole feature map into z, smooths z across frames,
// maps it with truncation Psi and then replaces layers MixFrom and up with Static.
type AveragedComposer struct {
	Generator Generator
	Label     []float32
	Psi       float64
	Static    Dlatent
	Alpha     float64
	MixFrom   int
}

func (c *AveragedComposer) Compose(features Tensor, state SmoothingState) (Dlatent, SmoothingState, error) {
	if err := checkChannels(features, c.Generator.Info()); err != nil {
		return nil, state, err
	}
	z, err := SpatialMean(features)
	if err != nil {
		return nil, state, err
	}

	if state.Frames > 0 {
		z = EMA(state.PrevZ, z, c.Alpha)
	}

	w, err := c.Generator.Mapping(z, c.Label, c.Psi)
	if err != nil {
		return nil, state, fmt.Errorf("mapping: %w", err)
	}
	MixLayers(w, c.Static, c.MixFrom)

	return w, SmoothingState{Frames: state.Frames + 1, PrevZ: z}, nil
}

// RegionalComposer maps the coarse, middle and fine regions of the feature map to
// separate w latents at psi 1, stitches their layers together and smooths the result.
type RegionalComposer struct {
	Generator Generator
	Label     []float32
	Alpha     float64
	CoarseEnd int
	MiddleEnd int
}

func (c *RegionalComposer) Compose(features Tensor, state SmoothingState) (Dlatent, SmoothingState, error) {
	if err := checkChannels(features, c.Generator.Info()); err != nil {
		return nil, state, err
	}
	coarse, middle, fine := Partition(features.Height, features.Width)

	var ws [3]Dlatent
	for i, region := range []Region{coarse, middle, fine} {
		z, err := RegionMean(features, region)
		if err != nil {
			return nil, state, err
		}
		w, err := c.Generator.Mapping(z, c.Label, 1.0)
		if err != nil {
			return nil, state, fmt.Errorf("mapping: %w", err)
		}
		ws[i] = w
	}

	w, err := ConcatLayers(ws[0], ws[1], ws[2], c.CoarseEnd, c.MiddleEnd)
	if err != nil {
		return nil, state, err
	}

	if state.Frames > 0 {
		if w, err = w.EMA(state.PrevW, c.Alpha); err != nil {
			return nil, state, err
		}
	}

	return w, SmoothingState{Frames: state.Frames + 1, PrevW: w}, nil
}

func checkChannels(features Tensor, info ModelInfo) error {
	if features.Channels != info.ZDim {
		return fmt.Errorf("%w: feature map has %d channels but the generator expects z_dim %d", ErrConfiguration, features.Channels, info.ZDim)
	}
	return nil
}
