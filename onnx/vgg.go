package onnx

import (
	"context"
	"fmt"

	"github.com/livegan"
	ort "github.com/yalue/onnxruntime_go"
)

// VGG16ModelFile is the graph name inside a feature bundle.
const VGG16ModelFile = "vgg16.onnx"

// VGG16 returns intermediate convolution activations for frames of one fixed size.
// The layers it can return are chosen when it is created.
type VGG16 struct {
	session *ModelSession
	input   *ort.Tensor[float32]
	outputs map[string]*ort.Tensor[float32]
	layers  map[string]livegan.LayerInfo
	width   int
	height  int
}

// NewVGG16 creates a session for width x height inputs exposing the given layers.
func NewVGG16(ctx context.Context, bundle *livegan.Bundle, width, height int, layers []string, opts ...Option) (*VGG16, error) {
	s, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("%w: no feature layers requested", livegan.ErrConfiguration)
	}

	path, err := bundle.File(ctx, VGG16ModelFile)
	if err != nil {
		return nil, err
	}

	v := &VGG16{
		outputs: make(map[string]*ort.Tensor[float32], len(layers)),
		layers:  make(map[string]livegan.LayerInfo, len(layers)),
		width:   width,
		height:  height,
	}

	v.input, err = ort.NewEmptyTensor[float32](ort.NewShape(1, 3, int64(height), int64(width)))
	if err != nil {
		return nil, fmt.Errorf("%w: creating input tensor: %w", livegan.ErrModelLoad, err)
	}

	outputs := make([]ort.ArbitraryTensor, 0, len(layers))
	for _, name := range layers {
		info, ok := livegan.LookupLayer(name)
		if !ok {
			v.destroyTensors(outputs)
			return nil, fmt.Errorf("%w: unknown feature layer %q", livegan.ErrConfiguration, name)
		}
		h, w := info.OutputSize(height, width)
		if h == 0 || w == 0 {
			v.destroyTensors(outputs)
			return nil, fmt.Errorf("%w: a %dx%d frame is too small for layer %s", livegan.ErrConfiguration, width, height, name)
		}
		t, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(info.Channels), int64(h), int64(w)))
		if err != nil {
			v.destroyTensors(outputs)
			return nil, fmt.Errorf("%w: creating %s tensor: %w", livegan.ErrModelLoad, name, err)
		}
		v.outputs[name] = t
		v.layers[name] = info
		outputs = append(outputs, t)
	}

	v.session, err = newSession(s, path, []string{"image"}, layers, []ort.ArbitraryTensor{v.input}, outputs)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (v *VGG16) destroyTensors(outputs []ort.ArbitraryTensor) {
	v.input.Destroy()
	for _, t := range outputs {
		t.Destroy()
	}
}

// Features runs the network once and copies out the requested layers in order.
func (v *VGG16) Features(input livegan.Tensor, layers []string) ([]livegan.Tensor, error) {
	if input.Channels != 3 || input.Width != v.width || input.Height != v.height {
		return nil, fmt.Errorf("input is %dx%dx%d, want 3x%dx%d", input.Channels, input.Height, input.Width, v.height, v.width)
	}
	for _, name := range layers {
		if _, ok := v.outputs[name]; !ok {
			return nil, fmt.Errorf("layer %q was not configured on this extractor", name)
		}
	}

	copy(v.input.GetData(), input.Data)
	if err := v.session.Run(); err != nil {
		return nil, fmt.Errorf("running feature network: %w", err)
	}

	out := make([]livegan.Tensor, 0, len(layers))
	for _, name := range layers {
		info := v.layers[name]
		h, w := info.OutputSize(v.height, v.width)
		t := livegan.NewTensor(info.Channels, h, w)
		copy(t.Data, v.outputs[name].GetData())
		out = append(out, t)
	}
	return out, nil
}

func (v *VGG16) Destroy() {
	v.session.Destroy()
}
