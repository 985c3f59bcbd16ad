package livegan

import "errors"

var (
	// ErrModelLoad covers a bad model identifier, an unreachable source or a corrupt artifact.
	ErrModelLoad = errors.New("model load failed")
	// ErrDeviceUnavailable is reported when the gpu provider cannot be used; callers fall back to cpu.
	ErrDeviceUnavailable = errors.New("device unavailable")
	// ErrCapture is a single failed camera read. The frame is skipped.
	ErrCapture = errors.New("capture failed")
	// ErrCameraClosed ends the frame loop.
	ErrCameraClosed = errors.New("camera closed")
	// ErrRecording means the video writer could not be created or written.
	ErrRecording = errors.New("recording failed")
	// ErrConfiguration is an invalid flag value or combination, reported before any resource is acquired.
	ErrConfiguration = errors.New("invalid configuration")
)
