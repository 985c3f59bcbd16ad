// Package cv binds the pipelines to OpenCV capture, display and video files.
package cv

import (
	"fmt"
	"image"
	"strconv"

	"github.com/livegan"
	"gocv.io/x/gocv"
)

// CameraInfo is what the source reports about its native stream.
type CameraInfo struct {
	Source     string
	Width      int
	Height     int
	FPS        float64
	FrameCount int // zero for live devices
}

// Camera reads frames from a capture device or, for replays, a video file.
type Camera struct {
	capture *gocv.VideoCapture
	frame   gocv.Mat
	file    bool
	Info    CameraInfo
}

// OpenCamera opens source: a device index such as "0", or the path of a video file.
func OpenCamera(source string) (*Camera, error) {
	var device interface{} = source
	id, err := strconv.Atoi(source)
	file := err != nil
	if !file {
		device = id
	}

	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", livegan.ErrCapture, source, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: cannot open %s", livegan.ErrCapture, source)
	}

	info := CameraInfo{
		Source: source,
		Width:  int(capture.Get(gocv.VideoCaptureFrameWidth)),
		Height: int(capture.Get(gocv.VideoCaptureFrameHeight)),
		FPS:    capture.Get(gocv.VideoCaptureFPS),
	}
	if file {
		info.FrameCount = int(capture.Get(gocv.VideoCaptureFrameCount))
	}
	return &Camera{capture: capture, frame: gocv.NewMat(), file: file, Info: info}, nil
}

// Read grabs one frame. A failed or empty read returns livegan.ErrCapture; the end of a
// video file returns livegan.ErrCameraClosed.
func (c *Camera) Read() (image.Image, error) {
	if !c.capture.IsOpened() {
		return nil, livegan.ErrCameraClosed
	}
	if ok := c.capture.Read(&c.frame); !ok {
		if c.file {
			return nil, livegan.ErrCameraClosed
		}
		return nil, fmt.Errorf("%w: cannot read device", livegan.ErrCapture)
	}
	if c.frame.Empty() {
		return nil, fmt.Errorf("%w: empty frame", livegan.ErrCapture)
	}
	img, err := c.frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", livegan.ErrCapture, err)
	}
	return img, nil
}

func (c *Camera) Close() error {
	if err := c.frame.Close(); err != nil {
		return err
	}
	return c.capture.Close()
}

// VideoSink writes frames of one fixed size to an mp4 file.
type VideoSink struct {
	VideoWriter *gocv.VideoWriter
	Codec       string
	TargetPath  string
	Width       int
	Height      int
}

// NewVideoSink opens targetPath for writing. It fails when the codec or path is unusable.
func NewVideoSink(targetPath, codec string, fps float64, width, height int) (*VideoSink, error) {
	videoWriter, err := gocv.VideoWriterFile(targetPath, codec, fps, width, height, true)
	if err != nil {
		return nil, err
	}
	if !videoWriter.IsOpened() {
		videoWriter.Close()
		return nil, fmt.Errorf("cannot open %s with codec %s", targetPath, codec)
	}

	return &VideoSink{
		VideoWriter: videoWriter,
		Codec:       codec,
		TargetPath:  targetPath,
		Width:       width,
		Height:      height,
	}, nil
}

// OpenMP4 is a livegan.WriterFactory writing mp4v files.
func OpenMP4(path string, fps float64, width, height int) (livegan.VideoWriter, error) {
	return NewVideoSink(path, "mp4v", fps, width, height)
}

func (v *VideoSink) Write(img image.Image) error {
	frame, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return err
	}
	defer frame.Close()
	return v.VideoWriter.Write(frame)
}

func (v *VideoSink) Close() error {
	return v.VideoWriter.Close()
}

// LoadImage reads a color image file.
func LoadImage(path string) (image.Image, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("failed to load image: %s", path)
	}
	return mat.ToImage()
}
