package livegan

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sbinet/npyio"
	"github.com/sbinet/npyio/npz"
)

// Center is where the w space is recentered before synthesis.
// A nil Center keeps the model's own average latent.
type Center interface {
	center()
}

// SeedCenter recenters on the untruncated w of a seeded z.
type SeedCenter struct {
	Seed int64
}

// SavedLatentCenter recenters on a w stored in a .npy file or a .npz archive.
type SavedLatentCenter struct {
	Path string
}

func (SeedCenter) center()        {}
func (SavedLatentCenter) center() {}

// ParseCenter reads the --new-center flag: an integer is a seed, anything else a file path.
func ParseCenter(s string) (Center, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if seed, err := strconv.ParseInt(s, 10, 64); err == nil {
		return SeedCenter{Seed: seed}, nil
	}
	switch strings.ToLower(filepath.Ext(s)) {
	case ".npy", ".npz":
		return SavedLatentCenter{Path: s}, nil
	}
	return nil, fmt.Errorf("%w: new center %q must be a seed or a .npy/.npz file", ErrConfiguration, s)
}

// ResolveCenter computes the recentering latent once, at load time.
func ResolveCenter(c Center, g Generator, label []float32) (Dlatent, error) {
	info := g.Info()
	switch c := c.(type) {
	case nil:
		return Broadcast(info.WAvg, info.NumWs), nil
	case SeedCenter:
		w, err := g.Mapping(SeededLatent(c.Seed, info.ZDim), label, 1.0)
		if err != nil {
			return nil, fmt.Errorf("new center from seed %d: %w", c.Seed, err)
		}
		return w, nil
	case SavedLatentCenter:
		return LoadSavedLatent(c.Path, info.NumWs, info.WDim)
	}
	return nil, fmt.Errorf("%w: unsupported center %T", ErrConfiguration, c)
}

// LoadSavedLatent reads a float32 or float64 latent holding either a single w_dim
// vector (broadcast to every layer) or num_ws x w_dim values. Leading singleton axes are allowed.
// A .npz archive must hold a "w" array or exactly one array.
func LoadSavedLatent(path string, numWs, wDim int) (Dlatent, error) {
	if strings.EqualFold(filepath.Ext(path), ".npz") {
		return loadArchivedLatent(path, numWs, wDim)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelLoad, err)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrModelLoad, path, err)
	}
	data, err := readFloats(r.Header.Descr.Type, r.Read)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrModelLoad, path, err)
	}
	return latentFromFlat(data, numWs, wDim)
}

func loadArchivedLatent(path string, numWs, wDim int) (Dlatent, error) {
	r, err := npz.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelLoad, err)
	}
	defer r.Close()

	name := ""
	keys := r.Keys()
	for _, k := range keys {
		if k == "w.npy" || k == "w" {
			name = k
		}
	}
	if name == "" && len(keys) == 1 {
		name = keys[0]
	}
	if name == "" {
		return nil, fmt.Errorf("%w: %s: no \"w\" array among %v", ErrModelLoad, path, keys)
	}

	hdr := r.Header(name)
	if hdr == nil {
		return nil, fmt.Errorf("%w: %s: unreadable array %q", ErrModelLoad, path, name)
	}
	data, err := readFloats(hdr.Descr.Type, func(ptr interface{}) error {
		return r.Read(name, ptr)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrModelLoad, path, err)
	}
	return latentFromFlat(data, numWs, wDim)
}

// readFloats widens a little-endian float32 or float64 array to float64.
func readFloats(dtype string, read func(ptr interface{}) error) ([]float64, error) {
	switch dtype {
	case "<f4":
		var f32 []float32
		if err := read(&f32); err != nil {
			return nil, err
		}
		data := make([]float64, len(f32))
		for i, v := range f32 {
			data[i] = float64(v)
		}
		return data, nil
	case "<f8":
		var data []float64
		if err := read(&data); err != nil {
			return nil, err
		}
		return data, nil
	}
	return nil, fmt.Errorf("unsupported dtype %q", dtype)
}

func latentFromFlat(data []float64, numWs, wDim int) (Dlatent, error) {
	switch len(data) {
	case wDim:
		return Broadcast(data, numWs), nil
	case numWs * wDim:
		w := make(Dlatent, numWs)
		for i := range w {
			w[i] = append([]float64(nil), data[i*wDim:(i+1)*wDim]...)
		}
		return w, nil
	}
	return nil, fmt.Errorf("%w: saved latent has %d values, want %d or %d", ErrModelLoad, len(data), wDim, numWs*wDim)
}
