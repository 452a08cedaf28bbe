package capture

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"trafficcounter/internal/timestamp"
)

// ErrSourceUnavailable is returned when the capture source cannot be opened.
var ErrSourceUnavailable = errors.New("video source unavailable")

// VideoSource reads frames from a capture device or media file.
type VideoSource struct {
	capture *gocv.VideoCapture
	source  timestamp.Source
	frames  int
	closed  bool
}

// Open opens the device or file described by source.
func Open(source timestamp.Source) (*VideoSource, error) {
	var (
		capture *gocv.VideoCapture
		err     error
	)
	if source.IsLive() {
		capture, err = gocv.OpenVideoCapture(source.Device)
	} else {
		capture, err = gocv.VideoCaptureFile(source.Path)
	}
	if err != nil {
		return nil, errors.Wrapf(ErrSourceUnavailable, "%s: %v", source, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, errors.Wrapf(ErrSourceUnavailable, "%s: not opened", source)
	}

	return &VideoSource{capture: capture, source: source}, nil
}

// Read returns the next frame. It returns false at end of stream or when
// the read fails; the caller owns and must close a returned frame.
func (s *VideoSource) Read() (*gocv.Mat, bool) {
	if s.closed {
		return nil, false
	}

	frame := gocv.NewMat()
	if ok := s.capture.Read(&frame); !ok || frame.Empty() {
		frame.Close()
		return nil, false
	}
	s.frames++
	return &frame, true
}

// PositionMsec is the playback position after the last read.
func (s *VideoSource) PositionMsec() float64 {
	if s.closed {
		return 0
	}
	return s.capture.Get(gocv.VideoCapturePosMsec)
}

// FPS reports the source's nominal frame rate, zero when unknown.
func (s *VideoSource) FPS() float64 {
	if s.closed {
		return 0
	}
	return s.capture.Get(gocv.VideoCaptureFPS)
}

// Frames is the number of frames read so far.
func (s *VideoSource) Frames() int {
	return s.frames
}

// Source describes what was opened.
func (s *VideoSource) Source() timestamp.Source {
	return s.source
}

// Close releases the capture. Calling it more than once is safe.
func (s *VideoSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.capture.Close()
}
