package livegan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveModel(t *testing.T) {
	tests := []struct {
		name     string
		cfg      string
		id       string
		registry string
		want     string
		wantErr  bool
	}{
		{name: "pretrained name", cfg: "stylegan3-r", id: "ffhqu256", registry: "https://models.example.com/", want: "https://models.example.com/stylegan3-r/ffhqu256"},
		{name: "name of another family", cfg: "stylegan2", id: "ffhqu256", registry: "https://models.example.com", want: "ffhqu256"},
		{name: "local path", cfg: "stylegan2", id: "./models/ffhq", want: "./models/ffhq"},
		{name: "url without cfg", id: "https://host/bundle", want: "https://host/bundle"},
		{name: "pretrained name without registry", cfg: "stylegan2", id: "ffhq1024", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveModel(tt.cfg, tt.id, tt.registry)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrModelLoad)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBundleLocal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.json"), []byte("{}"), 0644))
	f := NewFetcher(t.TempDir(), quietLogger())

	b, err := f.Open(dir)
	require.NoError(t, err)
	path, err := b.File(context.Background(), "model.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "model.json"), path)

	_, err = b.File(context.Background(), "synthesis.onnx")
	assert.ErrorIs(t, err, ErrModelLoad)
	assert.True(t, IsNotExist(err))

	_, err = f.Open(filepath.Join(dir, "model.json"))
	assert.ErrorIs(t, err, ErrModelLoad)
	_, err = f.Open(filepath.Join(dir, "nope"))
	assert.ErrorIs(t, err, ErrModelLoad)
}

func TestBundleRemote(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		switch r.URL.Path {
		case "/bundles/ffhq/model.json":
			w.Write([]byte(`{"name":"ffhq"}`))
		case "/bundles/ffhq/broken.onnx":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cache := t.TempDir()
	f := NewFetcher(cache, quietLogger())
	f.Progress = nil
	location := srv.URL + "/bundles/ffhq"

	b, err := f.Open(location)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cache, CacheKey(location)), b.Dir)

	path, err := b.File(context.Background(), "model.json")
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"ffhq"}`, string(data))

	_, err = b.File(context.Background(), "model.json")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "second request is served from the cache")

	_, err = b.File(context.Background(), "synthesis_anchored.onnx")
	assert.ErrorIs(t, err, ErrModelLoad)
	assert.True(t, IsNotExist(err))

	_, err = b.File(context.Background(), "broken.onnx")
	assert.ErrorIs(t, err, ErrModelLoad)
	assert.False(t, IsNotExist(err))
	assert.NoFileExists(t, filepath.Join(b.Dir, "broken.onnx"))
}

func TestCacheKey(t *testing.T) {
	a := CacheKey("https://host/a")
	assert.Len(t, a, 16)
	assert.Equal(t, a, CacheKey("https://host/a"))
	assert.NotEqual(t, a, CacheKey("https://host/b"))
}
