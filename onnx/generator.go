package onnx

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/livegan"
	ort "github.com/yalue/onnxruntime_go"
)

// Generator runs an exported mapping network and synthesis network.
type Generator struct {
	info livegan.ModelInfo
	avg  livegan.Dlatent

	mapping *ModelSession
	z       *ort.Tensor[float32]
	c       *ort.Tensor[float32]
	ws      *ort.Tensor[float32]

	synthesis *ModelSession
	synthWs   *ort.Tensor[float32]
	noise     *ort.Tensor[int64]
	img       *ort.Tensor[float32]
}

// ReadModelInfo loads and validates the bundle's model.json.
func ReadModelInfo(ctx context.Context, bundle *livegan.Bundle) (livegan.ModelInfo, error) {
	var info livegan.ModelInfo
	path, err := bundle.File(ctx, "model.json")
	if err != nil {
		return info, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return info, fmt.Errorf("%w: %w", livegan.ErrModelLoad, err)
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return info, fmt.Errorf("%w: parsing %s: %w", livegan.ErrModelLoad, path, err)
	}
	if err := info.Validate(); err != nil {
		return info, fmt.Errorf("%w: %w", livegan.ErrModelLoad, err)
	}
	return info, nil
}

// LoadGenerator reads a generator bundle and creates its sessions.
func LoadGenerator(ctx context.Context, bundle *livegan.Bundle, opts ...Option) (*Generator, error) {
	s, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	info, err := ReadModelInfo(ctx, bundle)
	if err != nil {
		return nil, err
	}

	mappingPath, err := bundle.File(ctx, info.Mapping)
	if err != nil {
		return nil, err
	}
	synthesisPath, err := synthesisGraph(ctx, bundle, info, s)
	if err != nil {
		return nil, err
	}

	g := &Generator{info: info, avg: livegan.Broadcast(info.WAvg, info.NumWs)}
	if err := g.initMapping(s, mappingPath); err != nil {
		return nil, err
	}
	if err := g.initSynthesis(s, synthesisPath); err != nil {
		g.Destroy()
		return nil, err
	}

	s.log.WithField("model", info.Name).Debugf("Generator loaded: z=%d w=%d c=%d num_ws=%d res=%d",
		info.ZDim, info.WDim, info.CDim, info.NumWs, info.Resolution)
	return g, nil
}

// synthesisGraph picks the anchored graph when asked for and present.
func synthesisGraph(ctx context.Context, bundle *livegan.Bundle, info livegan.ModelInfo, s *settings) (string, error) {
	if s.anchored {
		if info.SynthesisAnchored == "" {
			s.log.Warn("Model has no anchored synthesis graph, --anchor-latent-space ignored")
		} else {
			path, err := bundle.File(ctx, info.SynthesisAnchored)
			if err == nil {
				return path, nil
			}
			if !livegan.IsNotExist(err) {
				return "", err
			}
			s.log.WithError(err).Warn("Anchored synthesis graph missing, --anchor-latent-space ignored")
		}
	}
	return bundle.File(ctx, info.Synthesis)
}

func (g *Generator) initMapping(s *settings, path string) error {
	var err error
	g.z, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(g.info.ZDim)))
	if err != nil {
		return fmt.Errorf("%w: creating z tensor: %w", livegan.ErrModelLoad, err)
	}
	g.ws, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(g.info.NumWs), int64(g.info.WDim)))
	if err != nil {
		g.z.Destroy()
		return fmt.Errorf("%w: creating ws tensor: %w", livegan.ErrModelLoad, err)
	}

	inputNames := []string{"z"}
	inputs := []ort.ArbitraryTensor{g.z}
	if g.info.CDim > 0 {
		g.c, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(g.info.CDim)))
		if err != nil {
			g.z.Destroy()
			g.ws.Destroy()
			return fmt.Errorf("%w: creating c tensor: %w", livegan.ErrModelLoad, err)
		}
		inputNames = append(inputNames, "c")
		inputs = append(inputs, g.c)
	}

	g.mapping, err = newSession(s, path, inputNames, []string{"ws"}, inputs, []ort.ArbitraryTensor{g.ws})
	return err
}

func (g *Generator) initSynthesis(s *settings, path string) error {
	var err error
	res := int64(g.info.Resolution)
	g.synthWs, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(g.info.NumWs), int64(g.info.WDim)))
	if err != nil {
		return fmt.Errorf("%w: creating ws tensor: %w", livegan.ErrModelLoad, err)
	}
	g.noise, err = ort.NewEmptyTensor[int64](ort.NewShape(1))
	if err != nil {
		g.synthWs.Destroy()
		return fmt.Errorf("%w: creating noise tensor: %w", livegan.ErrModelLoad, err)
	}
	g.img, err = ort.NewEmptyTensor[float32](ort.NewShape(1, 3, res, res))
	if err != nil {
		g.synthWs.Destroy()
		g.noise.Destroy()
		return fmt.Errorf("%w: creating image tensor: %w", livegan.ErrModelLoad, err)
	}

	g.synthesis, err = newSession(s, path, []string{"ws", "noise_mode"}, []string{"img"},
		[]ort.ArbitraryTensor{g.synthWs, g.noise}, []ort.ArbitraryTensor{g.img})
	return err
}

func (g *Generator) Info() livegan.ModelInfo {
	return g.info
}

func (g *Generator) Mapping(z livegan.Latent, label []float32, psi float64) (livegan.Dlatent, error) {
	if len(z) != g.info.ZDim {
		return nil, fmt.Errorf("z has %d values, want %d", len(z), g.info.ZDim)
	}
	zData := g.z.GetData()
	for i, v := range z {
		zData[i] = float32(v)
	}
	if g.c != nil {
		if len(label) != g.info.CDim {
			return nil, fmt.Errorf("label has %d values, want %d", len(label), g.info.CDim)
		}
		copy(g.c.GetData(), label)
	}

	if err := g.mapping.Run(); err != nil {
		return nil, fmt.Errorf("running mapping network: %w", err)
	}

	out := g.ws.GetData()
	w := livegan.NewDlatent(g.info.NumWs, g.info.WDim)
	for i := range w {
		for j := range w[i] {
			w[i][j] = float64(out[i*g.info.WDim+j])
		}
	}
	if psi == 1 {
		return w, nil
	}
	return livegan.Truncate(w, g.avg, psi)
}

func (g *Generator) Synthesis(w livegan.Dlatent, noise livegan.NoiseMode) (livegan.Tensor, error) {
	if len(w) != g.info.NumWs || w.Width() != g.info.WDim {
		return livegan.Tensor{}, fmt.Errorf("w is %dx%d, want %dx%d", len(w), w.Width(), g.info.NumWs, g.info.WDim)
	}
	data := g.synthWs.GetData()
	for i, layer := range w {
		for j, v := range layer {
			data[i*g.info.WDim+j] = float32(v)
		}
	}
	g.noise.GetData()[0] = int64(noise)

	if err := g.synthesis.Run(); err != nil {
		return livegan.Tensor{}, fmt.Errorf("running synthesis network: %w", err)
	}

	res := g.info.Resolution
	t := livegan.NewTensor(3, res, res)
	copy(t.Data, g.img.GetData())
	return t, nil
}

func (g *Generator) Destroy() {
	g.mapping.Destroy()
	g.synthesis.Destroy()
}
