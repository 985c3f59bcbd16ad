package livegan

import (
	"fmt"
	"image"
	"sort"

	"github.com/nfnt/resize"
)

// Tensor is a single CHW float32 tensor (batch of one).
type Tensor struct {
	Channels int
	Height   int
	Width    int
	Data     []float32
}

func NewTensor(channels, height, width int) Tensor {
	return Tensor{
		Channels: channels,
		Height:   height,
		Width:    width,
		Data:     make([]float32, channels*height*width),
	}
}

// At returns the value at channel c, row y, column x.
func (t Tensor) At(c, y, x int) float32 {
	return t.Data[(c*t.Height+y)*t.Width+x]
}

// FeatureExtractor returns one activation map per requested layer, in request order.
// The input must already be normalized (see ToTensor). Implementations are inference only.
type FeatureExtractor interface {
	Features(input Tensor, layers []string) ([]Tensor, error)
}

// LayerInfo describes a VGG16 convolution output.
type LayerInfo struct {
	Name     string
	Channels int
	Stride   int
}

// OutputSize is the spatial size of the layer for an input of the given size.
func (l LayerInfo) OutputSize(height, width int) (int, int) {
	h, w := height, width
	for s := l.Stride; s > 1; s /= 2 {
		h /= 2
		w /= 2
	}
	return h, w
}

var vgg16Layers = map[string]LayerInfo{
	"conv1_1": {"conv1_1", 64, 1},
	"conv1_2": {"conv1_2", 64, 1},
	"conv2_1": {"conv2_1", 128, 2},
	"conv2_2": {"conv2_2", 128, 2},
	"conv3_1": {"conv3_1", 256, 4},
	"conv3_2": {"conv3_2", 256, 4},
	"conv3_3": {"conv3_3", 256, 4},
	"conv4_1": {"conv4_1", 512, 8},
	"conv4_2": {"conv4_2", 512, 8},
	"conv4_3": {"conv4_3", 512, 8},
	"conv5_1": {"conv5_1", 512, 16},
	"conv5_2": {"conv5_2", 512, 16},
	"conv5_3": {"conv5_3", 512, 16},
}

// LookupLayer finds a VGG16 layer by name.
func LookupLayer(name string) (LayerInfo, bool) {
	l, ok := vgg16Layers[name]
	return l, ok
}

// LayerNames lists the known VGG16 layers, sorted.
func LayerNames() []string {
	names := make([]string, 0, len(vgg16Layers))
	for n := range vgg16Layers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var (
	imageNetMean = [3]float32{0.485, 0.456, 0.406}
	imageNetStd  = [3]float32{0.229, 0.224, 0.225}
)

// ToTensor converts img to a normalized RGB CHW tensor of the given size,
// resizing first when the image does not already match.
func ToTensor(img image.Image, width, height int) Tensor {
	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		img = resize.Resize(uint(width), uint(height), img, resize.Bilinear)
		b = img.Bounds()
	}

	t := NewTensor(3, height, width)
	channelSize := width * height
	red := t.Data[0:channelSize]
	green := t.Data[channelSize : channelSize*2]
	blue := t.Data[channelSize*2 : channelSize*3]

	i := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			red[i] = (float32(r>>8)/255.0 - imageNetMean[0]) / imageNetStd[0]
			green[i] = (float32(g>>8)/255.0 - imageNetMean[1]) / imageNetStd[1]
			blue[i] = (float32(bl>>8)/255.0 - imageNetMean[2]) / imageNetStd[2]
			i++
		}
	}
	return t
}

// Region is a half-open rectangle of a feature map: rows [Row0,Row1) x cols [Col0,Col1).
type Region struct {
	Row0, Row1 int
	Col0, Col1 int
}

func (r Region) Empty() bool {
	return r.Row1 <= r.Row0 || r.Col1 <= r.Col0
}

func (r Region) Contains(y, x int) bool {
	return y >= r.Row0 && y < r.Row1 && x >= r.Col0 && x < r.Col1
}

// Partition splits an h x w map into the top half (coarse), bottom-left quadrant (middle)
// and bottom-right quadrant (fine). Boundaries use floor division.
func Partition(h, w int) (coarse, middle, fine Region) {
	hh, hw := h/2, w/2
	coarse = Region{Row0: 0, Row1: hh, Col0: 0, Col1: w}
	middle = Region{Row0: hh, Row1: h, Col0: 0, Col1: hw}
	fine = Region{Row0: hh, Row1: h, Col0: hw, Col1: w}
	return coarse, middle, fine
}

// RegionMean averages every channel of t over r.
func RegionMean(t Tensor, r Region) ([]float64, error) {
	if r.Empty() {
		return nil, fmt.Errorf("empty region %+v of a %dx%d feature map", r, t.Height, t.Width)
	}
	out := make([]float64, t.Channels)
	n := float64((r.Row1 - r.Row0) * (r.Col1 - r.Col0))
	for c := 0; c < t.Channels; c++ {
		var sum float64
		for y := r.Row0; y < r.Row1; y++ {
			row := t.Data[(c*t.Height+y)*t.Width : (c*t.Height+y+1)*t.Width]
			for x := r.Col0; x < r.Col1; x++ {
				sum += float64(row[x])
			}
		}
		out[c] = sum / n
	}
	return out, nil
}

// SpatialMean averages every channel of t over all positions.
func SpatialMean(t Tensor) ([]float64, error) {
	return RegionMean(t, Region{Row0: 0, Row1: t.Height, Col0: 0, Col1: t.Width})
}
