package livegan

import (
	"fmt"
	"strconv"
	"strings"
)

// Strategy selects how feature maps become latents. It is fixed for a run.
type Strategy int

const (
	// StrategyAveraged averages the whole feature map into one latent and style-mixes
	// layers 4 and up from a seeded latent.
	StrategyAveraged Strategy = iota
	// StrategyRegional splits the feature map into coarse, middle and fine regions.
	StrategyRegional
)

func (s Strategy) String() string {
	switch s {
	case StrategyAveraged:
		return "averaged"
	case StrategyRegional:
		return "regional"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// DisplayMode selects what is rendered (and recorded) each frame.
type DisplayMode int

const (
	// DisplayCombined shows the camera frame and the synthesized frame side by side.
	DisplayCombined DisplayMode = iota
	// DisplaySynthOnly shows the synthesized frame alone.
	DisplaySynthOnly
)

// WindowTitle is the on-screen window name for the mode.
func (m DisplayMode) WindowTitle() string {
	if m == DisplaySynthOnly {
		return "Visuorreactive Demo - Only Synth Image"
	}
	return "Visuorreactive Demo"
}

// NoiseMode is forwarded to the synthesis network.
type NoiseMode int

const (
	NoiseConst NoiseMode = iota
	NoiseRandom
	NoiseNone
)

func ParseNoiseMode(s string) (NoiseMode, error) {
	switch s {
	case "const", "constant":
		return NoiseConst, nil
	case "random":
		return NoiseRandom, nil
	case "none":
		return NoiseNone, nil
	}
	return 0, fmt.Errorf("%w: noise mode %q must be one of const, random, none", ErrConfiguration, s)
}

func (n NoiseMode) String() string {
	switch n {
	case NoiseConst:
		return "const"
	case NoiseRandom:
		return "random"
	case NoiseNone:
		return "none"
	}
	return fmt.Sprintf("NoiseMode(%d)", int(n))
}

// Device is the compute target for inference.
type Device int

const (
	DeviceCPU Device = iota
	DeviceGPU
)

func ParseDevice(s string) (Device, error) {
	switch strings.ToLower(s) {
	case "cpu":
		return DeviceCPU, nil
	case "gpu", "cuda":
		return DeviceGPU, nil
	}
	return 0, fmt.Errorf("%w: device %q must be cpu or gpu", ErrConfiguration, s)
}

func (d Device) String() string {
	if d == DeviceGPU {
		return "gpu"
	}
	return "cpu"
}

// DisplayHeight is either an explicit pixel height or the generator's native resolution.
type DisplayHeight struct {
	Max    bool
	Pixels int
}

// ParseDisplayHeight accepts "", "max" or a positive integer.
func ParseDisplayHeight(s string) (DisplayHeight, error) {
	if s == "" || s == "max" {
		return DisplayHeight{Max: true}, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return DisplayHeight{}, fmt.Errorf("%w: display height %q must be 'max' or a positive integer", ErrConfiguration, s)
	}
	return DisplayHeight{Pixels: n}, nil
}

// Resolve returns the concrete height given the generator resolution.
func (h DisplayHeight) Resolve(resolution int) int {
	if h.Max || h.Pixels <= 0 {
		return resolution
	}
	return h.Pixels
}

// Options holds the raw flag values of the live tool.
type Options struct {
	Network       string
	Cfg           string
	Device        string
	Seed          int64
	Truncation    float64
	ClassIdx      int // negative means unset
	NoiseMode     string
	NewCenter     string
	Mirror        bool
	DemoHeight    int
	DemoWidth     int // zero means 4:3 of DemoHeight
	OnlySynth     bool
	Layer         string
	V0            bool
	V1            bool
	DisplayHeight string
	Anchor        bool
	FPS           int
	Compress      bool
	OutDir        string
	Description   string
	Verbose       bool
	LogFormat     string
	Source        string // camera index or video file, overrides LIVEGAN_CAMERA
}

// Config is the validated form of Options. Every variant is resolved here, once.
type Config struct {
	Network       string
	Cfg           string
	Device        Device
	Seed          int64
	Truncation    float64
	ClassIdx      *int
	Noise         NoiseMode
	Center        Center
	Mirror        bool
	WorkWidth     int
	WorkHeight    int
	Display       DisplayMode
	DisplayHeight DisplayHeight
	Layer         string
	Strategy      Strategy
	Anchor        bool
	FPS           int
	Compress      bool
	OutDir        string
	Description   string
	Verbose       bool
}

// SupportedCfgs are the generator families the name table knows about.
var SupportedCfgs = []string{"stylegan2", "stylegan3-t", "stylegan3-r"}

// Validate checks flag values and combinations and resolves them into a Config.
func (o Options) Validate() (Config, error) {
	var cfg Config

	if strings.TrimSpace(o.Network) == "" {
		return cfg, fmt.Errorf("%w: --network is required", ErrConfiguration)
	}
	if o.Cfg != "" && !contains(SupportedCfgs, o.Cfg) {
		return cfg, fmt.Errorf("%w: --cfg %q must be one of %s", ErrConfiguration, o.Cfg, strings.Join(SupportedCfgs, ", "))
	}

	device, err := ParseDevice(o.Device)
	if err != nil {
		return cfg, err
	}
	noise, err := ParseNoiseMode(o.NoiseMode)
	if err != nil {
		return cfg, err
	}

	switch {
	case o.V0 && o.V1:
		return cfg, fmt.Errorf("%w: --v0 and --v1 are mutually exclusive", ErrConfiguration)
	case o.V0:
		cfg.Strategy = StrategyAveraged
	case o.V1:
		cfg.Strategy = StrategyRegional
	default:
		return cfg, fmt.Errorf("%w: one of --v0 (averaged) or --v1 (regional) is required", ErrConfiguration)
	}

	if o.Truncation < 0 {
		return cfg, fmt.Errorf("%w: truncation must be >= 0, got %f", ErrConfiguration, o.Truncation)
	}
	if o.DemoHeight <= 0 {
		return cfg, fmt.Errorf("%w: demo height must be > 0, got %d", ErrConfiguration, o.DemoHeight)
	}
	if o.DemoWidth < 0 {
		return cfg, fmt.Errorf("%w: demo width must be >= 0 (0 means 4:3), got %d", ErrConfiguration, o.DemoWidth)
	}
	if o.FPS < 1 {
		return cfg, fmt.Errorf("%w: fps must be >= 1, got %d", ErrConfiguration, o.FPS)
	}
	layer, ok := LookupLayer(o.Layer)
	if !ok {
		return cfg, fmt.Errorf("%w: unknown feature layer %q", ErrConfiguration, o.Layer)
	}

	displayHeight, err := ParseDisplayHeight(o.DisplayHeight)
	if err != nil {
		return cfg, err
	}
	center, err := ParseCenter(o.NewCenter)
	if err != nil {
		return cfg, err
	}

	cfg.WorkHeight = o.DemoHeight
	cfg.WorkWidth = o.DemoWidth
	if cfg.WorkWidth == 0 {
		cfg.WorkWidth = FourThirds(o.DemoHeight)
	}
	if err := checkFeatureMap(layer, cfg.Strategy, cfg.WorkHeight, cfg.WorkWidth); err != nil {
		return cfg, err
	}

	cfg.Network = o.Network
	cfg.Cfg = o.Cfg
	cfg.Device = device
	cfg.Seed = o.Seed
	cfg.Truncation = o.Truncation
	if o.ClassIdx >= 0 {
		idx := o.ClassIdx
		cfg.ClassIdx = &idx
	}
	cfg.Noise = noise
	cfg.Center = center
	cfg.Mirror = o.Mirror
	cfg.Display = DisplayCombined
	if o.OnlySynth {
		cfg.Display = DisplaySynthOnly
	}
	cfg.DisplayHeight = displayHeight
	cfg.Layer = o.Layer
	cfg.Anchor = o.Anchor
	cfg.FPS = o.FPS
	cfg.Compress = o.Compress
	cfg.OutDir = o.OutDir
	cfg.Description = o.Description
	cfg.Verbose = o.Verbose
	return cfg, nil
}

// checkFeatureMap rejects working sizes whose feature map cannot feed the strategy.
// The regional split needs at least two rows and two columns.
func checkFeatureMap(layer LayerInfo, s Strategy, height, width int) error {
	h, w := layer.OutputSize(height, width)
	minSize := 1
	if s == StrategyRegional {
		minSize = 2
	}
	if h < minSize || w < minSize {
		return fmt.Errorf("%w: a %dx%d frame gives a %dx%d %s map, the %s strategy needs at least %dx%d",
			ErrConfiguration, width, height, w, h, layer.Name, s, minSize, minSize)
	}
	return nil
}

// FourThirds is the 4:3 width for a height, floored.
func FourThirds(height int) int {
	return height * 4 / 3
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
