package playback

import (
	"fmt"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"
)

// SupportedExtensions lists the containers offered by the file picker.
var SupportedExtensions = []string{".mp4", ".avi", ".mov", ".mkv"}

// SupportedExtension reports whether name has one of SupportedExtensions.
func SupportedExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// VideoSource yields decoded frames in order.
type VideoSource interface {
	// Read decodes the next frame into frame and returns false once exhausted.
	Read(frame *gocv.Mat) bool
	// PositionSeconds is the current playback position.
	PositionSeconds() float64
	Close() error
}

// SourceOpener opens the video at path.
type SourceOpener func(path string) (VideoSource, error)

// CaptureSource reads a video file through gocv.VideoCapture.
type CaptureSource struct {
	capture *gocv.VideoCapture
}

// OpenCaptureSource is the default SourceOpener.
func OpenCaptureSource(path string) (VideoSource, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open video file: %w", err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("unable to open video file: %s", path)
	}
	return &CaptureSource{capture: capture}, nil
}

func (s *CaptureSource) Read(frame *gocv.Mat) bool {
	return s.capture.Read(frame)
}

func (s *CaptureSource) PositionSeconds() float64 {
	return s.capture.Get(gocv.VideoCapturePosMsec) / 1000
}

func (s *CaptureSource) FPS() float64 {
	return s.capture.Get(gocv.VideoCaptureFPS)
}

func (s *CaptureSource) Close() error {
	return s.capture.Close()
}
