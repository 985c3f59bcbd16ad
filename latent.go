package livegan

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Latent is a z vector, the unconstrained input of the mapping network.
type Latent []float64

// Dlatent is a w latent: one vector per synthesis layer, all of the same width.
type Dlatent [][]float64

// NewDlatent allocates a zeroed numWs x wDim latent.
func NewDlatent(numWs, wDim int) Dlatent {
	w := make(Dlatent, numWs)
	for i := range w {
		w[i] = make([]float64, wDim)
	}
	return w
}

// Broadcast repeats vec on every one of numWs layers.
func Broadcast(vec []float64, numWs int) Dlatent {
	w := make(Dlatent, numWs)
	for i := range w {
		w[i] = append([]float64(nil), vec...)
	}
	return w
}

func (w Dlatent) Clone() Dlatent {
	out := make(Dlatent, len(w))
	for i, layer := range w {
		out[i] = append([]float64(nil), layer...)
	}
	return out
}

// Width is the per-layer vector length, zero for an empty latent.
func (w Dlatent) Width() int {
	if len(w) == 0 {
		return 0
	}
	return len(w[0])
}

// Flatten returns the layers concatenated in order.
func (w Dlatent) Flatten() []float64 {
	out := make([]float64, 0, len(w)*w.Width())
	for _, layer := range w {
		out = append(out, layer...)
	}
	return out
}

// EMA returns alpha*prev + (1-alpha)*cur. prev and cur must have the same length.
func EMA(prev, cur []float64, alpha float64) []float64 {
	out := make([]float64, len(cur))
	floats.ScaleTo(out, 1-alpha, cur)
	floats.AddScaled(out, alpha, prev)
	return out
}

// EMA smooths w against prev layer by layer.
func (w Dlatent) EMA(prev Dlatent, alpha float64) (Dlatent, error) {
	if len(prev) != len(w) || prev.Width() != w.Width() {
		return nil, fmt.Errorf("latent shape mismatch: %dx%d vs %dx%d", len(prev), prev.Width(), len(w), w.Width())
	}
	out := make(Dlatent, len(w))
	for i := range w {
		out[i] = EMA(prev[i], w[i], alpha)
	}
	return out, nil
}

// Truncate pulls w toward center: center + psi*(w - center).
func Truncate(w, center Dlatent, psi float64) (Dlatent, error) {
	if len(center) != len(w) || center.Width() != w.Width() {
		return nil, fmt.Errorf("center shape %dx%d does not match latent %dx%d", len(center), center.Width(), len(w), w.Width())
	}
	out := make(Dlatent, len(w))
	for i := range w {
		diff := make([]float64, len(w[i]))
		floats.SubTo(diff, w[i], center[i])
		out[i] = make([]float64, len(w[i]))
		floats.AddScaledTo(out[i], center[i], psi, diff)
	}
	return out, nil
}

// MixLayers copies layers [from, len) of src over dst, in place.
func MixLayers(dst, src Dlatent, from int) {
	for i := from; i < len(dst) && i < len(src); i++ {
		copy(dst[i], src[i])
	}
}

// ConcatLayers builds a latent taking layers [0,b1) from a, [b1,b2) from b and [b2,end) from c.
// All three must have the same shape.
func ConcatLayers(a, b, c Dlatent, b1, b2 int) (Dlatent, error) {
	if len(a) != len(b) || len(a) != len(c) {
		return nil, fmt.Errorf("cannot concat latents with %d, %d and %d layers", len(a), len(b), len(c))
	}
	out := make(Dlatent, len(a))
	for i := range out {
		src := a
		switch {
		case i >= b2:
			src = c
		case i >= b1:
			src = b
		}
		out[i] = append([]float64(nil), src[i]...)
	}
	return out, nil
}

// SeededLatent draws a deterministic standard normal z of length dim.
func SeededLatent(seed int64, dim int) Latent {
	r := rand.New(rand.NewSource(seed))
	z := make(Latent, dim)
	for i := range z {
		z[i] = r.NormFloat64()
	}
	return z
}
