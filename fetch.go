package livegan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
)

// pretrained maps a generator family and a model name to its bundle path inside the model registry.
var pretrained = map[string]map[string]string{
	"stylegan2": {
		"afhqcat512":   "stylegan2/afhqcat512",
		"afhqdog512":   "stylegan2/afhqdog512",
		"afhqwild512":  "stylegan2/afhqwild512",
		"brecahad512":  "stylegan2/brecahad512",
		"celebahq256":  "stylegan2/celebahq256",
		"cifar10":      "stylegan2/cifar10",
		"ffhq256":      "stylegan2/ffhq256",
		"ffhq512":      "stylegan2/ffhq512",
		"ffhq1024":     "stylegan2/ffhq1024",
		"lsundog256":   "stylegan2/lsundog256",
		"metfaces1024": "stylegan2/metfaces1024",
	},
	"stylegan3-t": {
		"afhq512":       "stylegan3-t/afhq512",
		"ffhq1024":      "stylegan3-t/ffhq1024",
		"ffhqu256":      "stylegan3-t/ffhqu256",
		"ffhqu1024":     "stylegan3-t/ffhqu1024",
		"metfaces1024":  "stylegan3-t/metfaces1024",
		"metfacesu1024": "stylegan3-t/metfacesu1024",
	},
	"stylegan3-r": {
		"afhq512":       "stylegan3-r/afhq512",
		"ffhq1024":      "stylegan3-r/ffhq1024",
		"ffhqu256":      "stylegan3-r/ffhqu256",
		"ffhqu1024":     "stylegan3-r/ffhqu1024",
		"metfaces1024":  "stylegan3-r/metfaces1024",
		"metfacesu1024": "stylegan3-r/metfacesu1024",
	},
}

// ResolveModel turns a model identifier into a bundle location. Names found in the
// pretrained table for cfg are joined onto registry; anything else is returned as is.
func ResolveModel(cfg, id, registry string) (string, error) {
	path, ok := pretrained[cfg][id]
	if !ok {
		return id, nil
	}
	if registry == "" {
		return "", fmt.Errorf("%w: %s/%s is a pretrained name but LIVEGAN_MODEL_REGISTRY is not set", ErrModelLoad, cfg, id)
	}
	return strings.TrimSuffix(registry, "/") + "/" + path, nil
}

// IsRemote reports whether location must be downloaded.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Fetcher resolves bundle files to local paths, downloading remote ones into CacheDir.
type Fetcher struct {
	Client   *resty.Client
	CacheDir string
	Log      logrus.FieldLogger
	Progress io.Writer // nil disables the progress bar
}

func NewFetcher(cacheDir string, log logrus.FieldLogger) *Fetcher {
	return &Fetcher{
		Client:   resty.New(),
		CacheDir: cacheDir,
		Log:      log,
		Progress: os.Stderr,
	}
}

// Bundle is a model directory, local or remote.
type Bundle struct {
	fetcher  *Fetcher
	Location string
	Dir      string
	remote   bool
}

// Open prepares a bundle. Local bundles must be existing directories.
func (f *Fetcher) Open(location string) (*Bundle, error) {
	if IsRemote(location) {
		return &Bundle{
			fetcher:  f,
			Location: location,
			Dir:      filepath.Join(f.CacheDir, CacheKey(location)),
			remote:   true,
		}, nil
	}

	info, err := os.Stat(location)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelLoad, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a model directory", ErrModelLoad, location)
	}
	return &Bundle{fetcher: f, Location: location, Dir: location}, nil
}

// CacheKey is the cache directory name for a remote location.
func CacheKey(location string) string {
	hash := sha256.Sum256([]byte(location))
	return hex.EncodeToString(hash[:])[:16]
}

// File returns the local path of name inside the bundle, downloading it if needed.
// A file that does not exist wraps os.ErrNotExist.
func (b *Bundle) File(ctx context.Context, name string) (string, error) {
	local := filepath.Join(b.Dir, name)
	if _, err := os.Stat(local); err == nil {
		return local, nil
	} else if !b.remote {
		return "", fmt.Errorf("%w: %w", ErrModelLoad, err)
	}

	if err := os.MkdirAll(b.Dir, 0755); err != nil {
		return "", fmt.Errorf("%w: %w", ErrModelLoad, err)
	}
	url := strings.TrimSuffix(b.Location, "/") + "/" + name
	if err := b.fetcher.download(ctx, url, local); err != nil {
		return "", err
	}
	return local, nil
}

func (f *Fetcher) download(ctx context.Context, url, dst string) error {
	f.Log.WithField("url", url).Info("Downloading")

	resp, err := f.Client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrModelLoad, url, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() == http.StatusNotFound {
		return fmt.Errorf("%w: %s: %w", ErrModelLoad, url, os.ErrNotExist)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("%w: %s: unexpected status %s", ErrModelLoad, url, resp.Status())
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".part-*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrModelLoad, err)
	}
	defer os.Remove(tmp.Name())

	var w io.Writer = tmp
	if f.Progress != nil {
		bar := progressbar.NewOptions64(resp.RawResponse.ContentLength,
			progressbar.OptionSetDescription(filepath.Base(dst)),
			progressbar.OptionSetWriter(f.Progress),
			progressbar.OptionShowBytes(true),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Finish()
		w = io.MultiWriter(tmp, bar)
	}

	if _, err := io.Copy(w, body); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %s: %w", ErrModelLoad, url, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrModelLoad, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("%w: %w", ErrModelLoad, err)
	}
	return nil
}

// IsNotExist reports whether err says a bundle file is missing.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
