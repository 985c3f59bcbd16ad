package livegan

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// MakeRunDir creates <outdir>/<NNNNN>-<description>, numbering one past the
// highest numeric prefix already present.
func MakeRunDir(outdir, description string) (string, error) {
	if err := os.MkdirAll(outdir, 0755); err != nil {
		return "", err
	}
	entries, err := os.ReadDir(outdir)
	if err != nil {
		return "", err
	}

	next := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		prefix, _, _ := strings.Cut(e.Name(), "-")
		if n, err := strconv.Atoi(prefix); err == nil && n >= next {
			next = n + 1
		}
	}

	dir := filepath.Join(outdir, fmt.Sprintf("%05d-%s", next, description))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// RunDir names recordings inside one run directory, created on first use.
type RunDir struct {
	OutDir      string
	Description string

	dir   string
	clips int
}

// Dir is the run directory, empty until the first clip is requested.
func (r *RunDir) Dir() string {
	return r.dir
}

func (r *RunDir) NextClip() (string, error) {
	if r.dir == "" {
		dir, err := MakeRunDir(r.OutDir, r.Description)
		if err != nil {
			return "", fmt.Errorf("cannot create run directory: %w", err)
		}
		r.dir = dir
	}

	name := "output.mp4"
	if r.clips > 0 {
		name = fmt.Sprintf("output-%02d.mp4", r.clips)
	}
	r.clips++
	return filepath.Join(r.dir, name), nil
}
