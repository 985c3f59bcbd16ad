package livegan

import (
	"fmt"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Env is the process environment consumed by the live tool. Compatible with "github.com/caarlos0/env".
type Env struct {
	OnnxRuntimeLib string `env:"ONNXRUNTIME_LIB" envDefault:"./onnxruntime-linux-x64-1.17.1/lib/libonnxruntime.so"`
	CacheDir       string `env:"LIVEGAN_CACHE_DIR" envDefault:"./.cache/livegan"`
	ModelRegistry  string `env:"LIVEGAN_MODEL_REGISTRY"`
	Features       string `env:"LIVEGAN_FEATURES" envDefault:"./models/vgg16"`
	Camera         string `env:"LIVEGAN_CAMERA" envDefault:"0"`
}

// LoadEnv reads an optional .env file and then the environment.
func LoadEnv() (*Env, error) {
	_ = godotenv.Load()
	e := &Env{}
	if err := env.Parse(e); err != nil {
		return nil, fmt.Errorf("%w: cannot parse environment: %w", ErrConfiguration, err)
	}
	return e, nil
}
