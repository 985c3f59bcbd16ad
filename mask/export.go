package mask

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
)

// Stem is the target file name without directory or extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Export writes <stem>.png with values 0/255 and <stem>.npy holding the raw 0/1 mask as a
// float64 height x width array. It returns both paths.
func Export(c *Canvas, outdir, stem string) (string, string, error) {
	if err := os.MkdirAll(outdir, 0755); err != nil {
		return "", "", err
	}

	pngPath := filepath.Join(outdir, stem+".png")
	if err := imaging.Save(c.Gray(), pngPath); err != nil {
		return "", "", fmt.Errorf("saving mask image: %w", err)
	}

	npyPath := filepath.Join(outdir, stem+".npy")
	if err := writeArray(npyPath, c); err != nil {
		return "", "", fmt.Errorf("saving mask array: %w", err)
	}
	return pngPath, npyPath, nil
}

func writeArray(path string, c *Canvas) error {
	data := make([]float64, len(c.Pix))
	for i, v := range c.Pix {
		data[i] = float64(v)
	}
	m := mat.NewDense(c.Height, c.Width, data)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := npyio.Write(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
