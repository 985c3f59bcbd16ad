// live drives a generator from webcam features, showing and optionally recording the result.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/livegan"
	"github.com/livegan/cv"
	"github.com/livegan/onnx"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var opts livegan.Options

var rootCmd = &cobra.Command{
	Use:           "live",
	Short:         "Visual-reactive generator demo driven by a webcam",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), opts)
	},
}

func init() {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	f := rootCmd.Flags()
	f.StringVar(&opts.Network, "network", "", "Generator bundle: pretrained name, local directory or URL")
	f.StringVar(&opts.Device, "device", "gpu", "Device to run inference on (cpu, gpu)")
	f.StringVar(&opts.Cfg, "cfg", "", "Generator family used to resolve pretrained names (stylegan2, stylegan3-t, stylegan3-r)")
	f.Int64Var(&opts.Seed, "seed", 0, "Random seed for the style-mixing latent")
	f.Float64Var(&opts.Truncation, "trunc", 0.7, "Truncation psi")
	f.IntVar(&opts.ClassIdx, "class", -1, "Class label for conditional models")
	f.StringVar(&opts.NoiseMode, "noise-mode", "const", "Noise mode (const, random, none)")
	f.StringVar(&opts.NewCenter, "new-center", "", "Recenter the latent space on a seed or a .npy/.npz latent")
	f.BoolVar(&opts.Mirror, "mirror", false, "Mirror the camera image horizontally")
	f.IntVar(&opts.DemoHeight, "demo-height", 360, "Working frame height")
	f.IntVar(&opts.DemoWidth, "demo-width", 0, "Working frame width, 4:3 of the height when unset")
	f.BoolVar(&opts.OnlySynth, "only-synth", false, "Show only the synthesized image")
	f.StringVar(&opts.Layer, "layer", "conv4_1", "Feature layer to read")
	f.BoolVar(&opts.V0, "v0", false, "Averaged strategy: whole-frame mean with style mixing")
	f.BoolVar(&opts.V1, "v1", false, "Regional strategy: coarse, middle and fine regions")
	f.StringVar(&opts.DisplayHeight, "display-height", "max", "Display height in pixels, or 'max' for the generator resolution")
	f.BoolVar(&opts.Anchor, "anchor-latent-space", false, "Use the anchored synthesis graph (StyleGAN3)")
	f.IntVar(&opts.FPS, "fps", 30, "Frame rate of recorded clips")
	f.BoolVar(&opts.Compress, "compress", false, "Also write an x264 compressed copy of each clip")
	f.StringVar(&opts.OutDir, "outdir", filepath.Join(cwd, "out", "videos"), "Directory for recordings")
	f.StringVar(&opts.Description, "description", "live_visual-reactive", "Run directory description")
	f.BoolVar(&opts.Verbose, "verbose", false, "Debug logging and FPS reports")
	f.StringVar(&opts.Source, "source", "", "Camera index or video file to read instead of LIVEGAN_CAMERA")
	f.StringVar(&opts.LogFormat, "log-format", "text", "Log format (text, json)")
	f.SetNormalizeFunc(flagAliases)
	_ = rootCmd.MarkFlagRequired("network")
}

// flagAliases accepts --anchor and --desc as short names.
func flagAliases(f *pflag.FlagSet, name string) pflag.NormalizedName {
	switch name {
	case "anchor":
		name = "anchor-latent-space"
	case "desc":
		name = "description"
	}
	return pflag.NormalizedName(name)
}

func run(ctx context.Context, opts livegan.Options) error {
	log := livegan.NewLogger(opts.Verbose, opts.LogFormat)

	cfg, err := opts.Validate()
	if err != nil {
		return err
	}
	env, err := livegan.LoadEnv()
	if err != nil {
		return err
	}

	if err := onnx.InitEnvironment(env.OnnxRuntimeLib); err != nil {
		return err
	}
	defer onnx.DestroyEnvironment()

	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond)
	s.Suffix = " Loading networks..."
	s.Writer = os.Stderr
	s.Start()
	loop, cleanup, err := load(ctx, cfg, env, log)
	s.Stop()
	if err != nil {
		return err
	}
	defer cleanup()

	source := env.Camera
	if opts.Source != "" {
		source = opts.Source
	}
	camera, err := cv.OpenCamera(source)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"source": camera.Info.Source,
		"width":  camera.Info.Width,
		"height": camera.Info.Height,
		"fps":    camera.Info.FPS,
		"frames": camera.Info.FrameCount,
	}).Info("Camera opened")

	loop.Camera = camera
	loop.Display = cv.NewWindow(cfg.Display.WindowTitle())

	log.Info("Press space to start or stop recording, escape to quit")
	return loop.Run(ctx)
}

// load fetches and initializes every network and assembles the frame loop without its devices.
func load(ctx context.Context, cfg livegan.Config, env *livegan.Env, log *logrus.Logger) (*livegan.FrameLoop, func(), error) {
	fetcher := livegan.NewFetcher(env.CacheDir, log)
	onnxOpts := []onnx.Option{
		onnx.WithDevice(cfg.Device),
		onnx.WithAnchoredSynthesis(cfg.Anchor),
		onnx.WithLogger(log),
	}

	location, err := livegan.ResolveModel(cfg.Cfg, cfg.Network, env.ModelRegistry)
	if err != nil {
		return nil, nil, err
	}
	log.WithField("network", location).Info("Loading generator")
	bundle, err := fetcher.Open(location)
	if err != nil {
		return nil, nil, err
	}
	g, err := onnx.LoadGenerator(ctx, bundle, onnxOpts...)
	if err != nil {
		return nil, nil, err
	}
	info := g.Info()

	layer, _ := livegan.LookupLayer(cfg.Layer)
	if layer.Channels != info.ZDim {
		g.Destroy()
		return nil, nil, fmt.Errorf("%w: layer %s has %d channels but %s expects z_dim %d",
			livegan.ErrConfiguration, layer.Name, layer.Channels, info.Name, info.ZDim)
	}

	label, err := livegan.ClassLabel(info, cfg.ClassIdx, log)
	if err != nil {
		g.Destroy()
		return nil, nil, err
	}
	center, err := livegan.ResolveCenter(cfg.Center, g, label)
	if err != nil {
		g.Destroy()
		return nil, nil, err
	}
	if err := livegan.Warmup(g, cfg.Seed); err != nil {
		g.Destroy()
		return nil, nil, err
	}
	composer, err := livegan.NewComposer(cfg.Strategy, g, label, cfg.Truncation, cfg.Seed)
	if err != nil {
		g.Destroy()
		return nil, nil, err
	}

	featureBundle, err := fetcher.Open(env.Features)
	if err != nil {
		g.Destroy()
		return nil, nil, err
	}
	vgg, err := onnx.NewVGG16(ctx, featureBundle, cfg.WorkWidth, cfg.WorkHeight, []string{cfg.Layer}, onnxOpts...)
	if err != nil {
		g.Destroy()
		return nil, nil, err
	}

	recorder := livegan.NewRecorder(cv.OpenMP4, cfg.FPS, &livegan.RunDir{OutDir: cfg.OutDir, Description: cfg.Description}, log)
	if cfg.Compress {
		recorder.AfterClose = func(path string) {
			out, err := livegan.CompressVideo(context.Background(), path)
			if err != nil {
				log.WithError(err).Warn("Compression failed, keeping the original clip")
				return
			}
			log.WithField("path", out).Info("Compressed clip saved")
		}
	}

	log.WithFields(logrus.Fields{
		"strategy": cfg.Strategy,
		"layer":    cfg.Layer,
		"work":     fmt.Sprintf("%dx%d", cfg.WorkWidth, cfg.WorkHeight),
		"trunc":    cfg.Truncation,
		"noise":    cfg.Noise,
	}).Info("Networks ready")

	loop := &livegan.FrameLoop{
		Extractor: vgg,
		Composer:  composer,
		Renderer: &livegan.Renderer{
			Generator: g,
			Center:    center,
			Psi:       cfg.Truncation,
			Noise:     cfg.Noise,
		},
		Recorder: recorder,
		Config: livegan.LoopConfig{
			Mirror:        cfg.Mirror,
			WorkWidth:     cfg.WorkWidth,
			WorkHeight:    cfg.WorkHeight,
			Layer:         cfg.Layer,
			Display:       cfg.Display,
			DisplayHeight: cfg.DisplayHeight.Resolve(info.Resolution),
			Verbose:       cfg.Verbose,
		},
		Log: log,
	}
	cleanup := func() {
		vgg.Destroy()
		g.Destroy()
	}
	return loop, cleanup, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
