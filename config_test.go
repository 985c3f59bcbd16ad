package livegan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOptions() Options {
	return Options{
		Network:    "ffhq1024",
		Cfg:        "stylegan3-r",
		Device:     "cpu",
		Truncation: 0.7,
		ClassIdx:   -1,
		NoiseMode:  "const",
		DemoHeight: 360,
		Layer:      "conv4_1",
		V0:         true,
		FPS:        30,
	}
}

func TestValidate(t *testing.T) {
	cfg, err := validOptions().Validate()
	require.NoError(t, err)
	assert.Equal(t, StrategyAveraged, cfg.Strategy)
	assert.Equal(t, 480, cfg.WorkWidth)
	assert.Equal(t, 360, cfg.WorkHeight)
	assert.Nil(t, cfg.ClassIdx)
	assert.Nil(t, cfg.Center)
	assert.True(t, cfg.DisplayHeight.Max)
	assert.Equal(t, DisplayCombined, cfg.Display)
	assert.Equal(t, DeviceCPU, cfg.Device)
}

func TestValidateResolvesVariants(t *testing.T) {
	o := validOptions()
	o.V0, o.V1 = false, true
	o.ClassIdx = 3
	o.DemoWidth = 500
	o.OnlySynth = true
	o.DisplayHeight = "512"
	o.NewCenter = "42"
	o.NoiseMode = "random"
	o.Device = "cuda"

	cfg, err := o.Validate()
	require.NoError(t, err)
	assert.Equal(t, StrategyRegional, cfg.Strategy)
	require.NotNil(t, cfg.ClassIdx)
	assert.Equal(t, 3, *cfg.ClassIdx)
	assert.Equal(t, 500, cfg.WorkWidth)
	assert.Equal(t, DisplaySynthOnly, cfg.Display)
	assert.Equal(t, 512, cfg.DisplayHeight.Resolve(1024))
	assert.Equal(t, SeedCenter{Seed: 42}, cfg.Center)
	assert.Equal(t, NoiseRandom, cfg.Noise)
	assert.Equal(t, DeviceGPU, cfg.Device)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
	}{
		{"missing network", func(o *Options) { o.Network = "" }},
		{"unknown cfg", func(o *Options) { o.Cfg = "stylegan1" }},
		{"unknown device", func(o *Options) { o.Device = "tpu" }},
		{"unknown noise mode", func(o *Options) { o.NoiseMode = "loud" }},
		{"both strategies", func(o *Options) { o.V1 = true }},
		{"no strategy", func(o *Options) { o.V0 = false }},
		{"negative truncation", func(o *Options) { o.Truncation = -0.1 }},
		{"zero demo height", func(o *Options) { o.DemoHeight = 0 }},
		{"negative demo width", func(o *Options) { o.DemoWidth = -1 }},
		{"zero fps", func(o *Options) { o.FPS = 0 }},
		{"unknown layer", func(o *Options) { o.Layer = "fc7" }},
		{"bad display height", func(o *Options) { o.DisplayHeight = "tall" }},
		{"pickle center", func(o *Options) { o.NewCenter = "w.pkl" }},
		{"averaged empty feature map", func(o *Options) { o.DemoHeight = 7 }},
		{"regional feature map under 2x2", func(o *Options) { o.V0, o.V1, o.DemoHeight = false, true, 8 }},
		{"regional one column", func(o *Options) { o.V0, o.V1, o.DemoHeight, o.DemoWidth = false, true, 64, 8 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := validOptions()
			tt.modify(&o)
			_, err := o.Validate()
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestValidateSmallestFeatureMaps(t *testing.T) {
	o := validOptions()
	o.DemoHeight = 8
	cfg, err := o.Validate()
	require.NoError(t, err)
	h, w := vgg16Layers["conv4_1"].OutputSize(cfg.WorkHeight, cfg.WorkWidth)
	assert.Equal(t, [2]int{1, 1}, [2]int{h, w})

	o.V0, o.V1 = false, true
	_, err = o.Validate()
	assert.ErrorIs(t, err, ErrConfiguration)

	o.DemoHeight = 16
	cfg, err = o.Validate()
	require.NoError(t, err)
	assert.Equal(t, 21, cfg.WorkWidth)
}

func TestValidateDemoWidthMessage(t *testing.T) {
	o := validOptions()
	o.DemoWidth = -4
	_, err := o.Validate()
	require.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "demo width must be >= 0 (0 means 4:3), got -4")
}

func TestDisplayHeight(t *testing.T) {
	for _, s := range []string{"", "max"} {
		h, err := ParseDisplayHeight(s)
		require.NoError(t, err)
		assert.Equal(t, 1024, h.Resolve(1024))
	}
	h, err := ParseDisplayHeight("720")
	require.NoError(t, err)
	assert.Equal(t, 720, h.Resolve(1024))

	_, err = ParseDisplayHeight("-5")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestWindowTitle(t *testing.T) {
	assert.Equal(t, "Visuorreactive Demo", DisplayCombined.WindowTitle())
	assert.Equal(t, "Visuorreactive Demo - Only Synth Image", DisplaySynthOnly.WindowTitle())
}

func TestFourThirds(t *testing.T) {
	assert.Equal(t, 480, FourThirds(360))
	assert.Equal(t, 5, FourThirds(4))
	assert.Equal(t, 1365, FourThirds(1024))
}
