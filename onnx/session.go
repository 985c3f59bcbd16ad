// Package onnx runs the generator and the feature network with onnxruntime.
package onnx

import (
	"errors"
	"fmt"
	"sync"

	"github.com/livegan"
	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"
)

var (
	envOnce sync.Once
	envErr  error
)

// InitEnvironment loads the onnxruntime shared library. Only the first call has an effect.
func InitEnvironment(libPath string) error {
	envOnce.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		if err := ort.InitializeEnvironment(); err != nil {
			envErr = fmt.Errorf("%w: initializing onnxruntime from %s: %w", livegan.ErrModelLoad, libPath, err)
		}
	})
	return envErr
}

// DestroyEnvironment releases the onnxruntime environment.
func DestroyEnvironment() error {
	return ort.DestroyEnvironment()
}

// ModelSession owns a session and every tensor bound to it.
type ModelSession struct {
	Session *ort.AdvancedSession
	Tensors []ort.ArbitraryTensor
}

func (m *ModelSession) Run() error {
	return m.Session.Run()
}

func (m *ModelSession) Destroy() {
	if m == nil {
		return
	}
	if m.Session != nil {
		m.Session.Destroy()
	}
	for _, t := range m.Tensors {
		t.Destroy()
	}
}

// Option configures the sessions created by LoadGenerator and NewVGG16.
type Option func(*settings) error

type settings struct {
	device   livegan.Device
	anchored bool
	log      logrus.FieldLogger
}

func defaultSettings() *settings {
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	return &settings{device: livegan.DeviceCPU, log: log}
}

func applyOptions(opts []Option) (*settings, error) {
	s := defaultSettings()
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// WithDevice selects the execution provider. gpu falls back to cpu when CUDA is unavailable.
func WithDevice(d livegan.Device) Option {
	return func(s *settings) error {
		s.device = d
		return nil
	}
}

// WithAnchoredSynthesis loads the bundle's anchored synthesis graph when it has one.
func WithAnchoredSynthesis(anchored bool) Option {
	return func(s *settings) error {
		s.anchored = anchored
		return nil
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *settings) error {
		if log == nil {
			return errors.New("nil logger")
		}
		s.log = log
		return nil
	}
}

// newSession creates an AdvancedSession over the given tensors. On gpu it appends the CUDA
// provider and retries on cpu if that fails. On error the tensors are destroyed.
func newSession(s *settings, path string, inputNames, outputNames []string,
	inputs, outputs []ort.ArbitraryTensor) (*ModelSession, error) {
	all := append(append([]ort.ArbitraryTensor{}, inputs...), outputs...)

	session, err := createSession(s.device, path, inputNames, outputNames, inputs, outputs)
	if err != nil && s.device == livegan.DeviceGPU {
		s.log.WithError(fmt.Errorf("%w: %w", livegan.ErrDeviceUnavailable, err)).Warn("Falling back to cpu")
		s.device = livegan.DeviceCPU
		session, err = createSession(livegan.DeviceCPU, path, inputNames, outputNames, inputs, outputs)
	}
	if err != nil {
		for _, t := range all {
			t.Destroy()
		}
		return nil, fmt.Errorf("%w: creating session for %s: %w", livegan.ErrModelLoad, path, err)
	}
	return &ModelSession{Session: session, Tensors: all}, nil
}

func createSession(device livegan.Device, path string, inputNames, outputNames []string,
	inputs, outputs []ort.ArbitraryTensor) (*ort.AdvancedSession, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("creating session options: %w", err)
	}
	defer options.Destroy()

	if device == livegan.DeviceGPU {
		cudaOptions, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return nil, fmt.Errorf("creating CUDA provider options: %w", err)
		}
		defer cudaOptions.Destroy()
		if err := options.AppendExecutionProviderCUDA(cudaOptions); err != nil {
			return nil, fmt.Errorf("enabling CUDA provider: %w", err)
		}
	}

	return ort.NewAdvancedSession(path, inputNames, outputNames, inputs, outputs, options)
}
