package livegan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEMA(t *testing.T) {
	tests := []struct {
		name  string
		prev  []float64
		cur   []float64
		alpha float64
		want  []float64
	}{
		{name: "averaged weight", prev: []float64{1, 0}, cur: []float64{0, 1}, alpha: 0.2, want: []float64{0.2, 0.8}},
		{name: "regional weight", prev: []float64{10, -10}, cur: []float64{0, 0}, alpha: 0.4, want: []float64{4, -4}},
		{name: "alpha zero keeps current", prev: []float64{5}, cur: []float64{3}, alpha: 0, want: []float64{3}},
		{name: "alpha one keeps previous", prev: []float64{5}, cur: []float64{3}, alpha: 1, want: []float64{5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EMA(tt.prev, tt.cur, tt.alpha)
			assert.InDeltaSlice(t, tt.want, got, 1e-12)
		})
	}
}

func TestDlatentEMAShapeMismatch(t *testing.T) {
	_, err := NewDlatent(2, 3).EMA(NewDlatent(3, 3), 0.4)
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	w := Dlatent{{2, 4}, {-2, 0}}
	center := Dlatent{{1, 1}, {0, 0}}

	got, err := Truncate(w, center, 0.5)
	require.NoError(t, err)
	assert.Equal(t, Dlatent{{1.5, 2.5}, {-1, 0}}, got)
	assert.Equal(t, Dlatent{{2, 4}, {-2, 0}}, w, "input is not modified")

	same, err := Truncate(w, center, 1)
	require.NoError(t, err)
	assert.Equal(t, w, same)

	collapsed, err := Truncate(w, center, 0)
	require.NoError(t, err)
	assert.Equal(t, center, collapsed)

	_, err = Truncate(w, NewDlatent(2, 1), 0.5)
	assert.Error(t, err)
}

func TestConcatLayers(t *testing.T) {
	a := Broadcast([]float64{1}, 16)
	b := Broadcast([]float64{2}, 16)
	c := Broadcast([]float64{3}, 16)

	w, err := ConcatLayers(a, b, c, 4, 8)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3, 3, 3, 3, 3}, w.Flatten())

	w[0][0] = 9
	assert.Equal(t, 1.0, a[0][0], "result does not alias its inputs")

	_, err = ConcatLayers(a, b, NewDlatent(14, 1), 4, 8)
	assert.Error(t, err)
}

func TestMixLayers(t *testing.T) {
	dst := Broadcast([]float64{0, 0}, 6)
	src := Broadcast([]float64{5, 6}, 6)
	MixLayers(dst, src, 4)
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 0, 0, 0, 5, 6, 5, 6}, dst.Flatten())
}

func TestSeededLatent(t *testing.T) {
	a := SeededLatent(42, 512)
	b := SeededLatent(42, 512)
	c := SeededLatent(43, 512)
	assert.Len(t, a, 512)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
