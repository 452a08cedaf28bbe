// Package pipeline runs the per-frame counting loop.
//
// The loop is generic over the frame type so that production code can feed
// gocv matrices while tests feed tagged integers. One goroutine does
// read, detect, count, annotate, show, stamp and stop-poll for each frame in
// turn; nothing overlaps between frames.
package pipeline

import (
	"io"
	"time"

	"trafficcounter/internal/detect"
	"trafficcounter/internal/metrics"
	"trafficcounter/internal/model"
	"trafficcounter/internal/timestamp"
	"trafficcounter/internal/vehicle"
)

// Source yields frames in order. Read returns false at end of stream or on
// a read failure; both end the loop normally.
type Source[F io.Closer] interface {
	Read() (F, bool)
	timestamp.Metadata
}

// Detector maps a frame to detections without modifying it.
type Detector[F io.Closer] interface {
	Detect(frame F) ([]model.DetectedObject, error)
}

// Annotator returns a new frame with detections and the count drawn on it.
type Annotator[F io.Closer] interface {
	Annotate(frame F, objects []model.DetectedObject, vehicles int) (F, error)
}

// Display presents annotated frames and reports stop requests.
// PollStop must not block for longer than a key poll.
type Display[F io.Closer] interface {
	Show(frame F, vehicles int) error
	PollStop() bool
}

// Recorder receives one record per processed frame.
type Recorder interface {
	Append(record model.LogRecord)
}

// Logger is the subset of the application logger the loop uses.
type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warning(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// StopReason tells why the loop ended. Neither reason is an error.
type StopReason string

const (
	StopEndOfStream StopReason = "end_of_stream"
	StopUser        StopReason = "user_stop"
)

// Summary describes a finished loop.
type Summary struct {
	Frames            int
	DetectionFailures int
	DisplayFailures   int
	TotalVehicles     int
	PeakVehicles      int
	Reason            StopReason
}

// Controller wires the loop's collaborators together.
type Controller[F io.Closer] struct {
	Source    Source[F]
	Detector  Detector[F]
	Annotator Annotator[F] // optional
	Display   Display[F]   // optional, nil in headless runs without stop sources
	Classes   vehicle.ClassSet
	Policy    *timestamp.Policy
	Recorder  Recorder
	Logger    Logger
	Metrics   *metrics.Metrics // optional
}

// Run processes frames until the source is exhausted or a stop is polled.
func (c *Controller[F]) Run() Summary {
	var summary Summary

	for {
		frame, ok := c.Source.Read()
		if !ok {
			summary.Reason = StopEndOfStream
			break
		}

		stop := c.step(frame, &summary)
		if stop {
			summary.Reason = StopUser
			break
		}
	}

	c.Logger.Info("Frame loop finished after %d frame(s): %s", summary.Frames, summary.Reason)
	return summary
}

// step handles one frame and reports whether a stop was requested.
func (c *Controller[F]) step(frame F, summary *Summary) bool {
	defer c.release(frame)
	seq := summary.Frames + 1

	objects := c.detect(frame, seq, summary)
	vehicles := vehicle.CountVehicles(objects, c.Classes)
	c.present(frame, objects, vehicles, seq, summary)

	record := c.Policy.Stamp(c.Source, vehicles)
	c.Recorder.Append(record)

	summary.Frames = seq
	summary.TotalVehicles += vehicles
	if vehicles > summary.PeakVehicles {
		summary.PeakVehicles = vehicles
	}
	c.Metrics.ObserveFrame(vehicles)
	c.Logger.Debug("Frame %d: %d object(s), %d vehicle(s)", seq, len(objects), vehicles)

	return c.Display != nil && c.Display.PollStop()
}

// detect runs the detector; a failed frame has no detections.
func (c *Controller[F]) detect(frame F, seq int, summary *Summary) []model.DetectedObject {
	start := time.Now()
	objects, err := c.Detector.Detect(frame)
	if err != nil {
		err = detect.Failure(err)
	}
	c.Metrics.ObserveDetect(time.Since(start), err)

	if err != nil {
		summary.DetectionFailures++
		c.Logger.Error("Frame %d: %v, counting as 0 vehicles", seq, err)
		return nil
	}
	return objects
}

// present draws the overlay and hands it to the display. Failures here are
// logged and never stop the loop.
func (c *Controller[F]) present(frame F, objects []model.DetectedObject, vehicles, seq int, summary *Summary) {
	if c.Display == nil {
		return
	}

	shown := frame
	if c.Annotator != nil {
		annotated, err := c.Annotator.Annotate(frame, objects, vehicles)
		if err != nil {
			c.displayFailure(summary, seq, "annotate", err)
		} else {
			shown = annotated
			defer c.release(annotated)
		}
	}

	if err := c.Display.Show(shown, vehicles); err != nil {
		c.displayFailure(summary, seq, "show", err)
	}
}

func (c *Controller[F]) displayFailure(summary *Summary, seq int, stage string, err error) {
	summary.DisplayFailures++
	c.Metrics.ObserveDisplayFailure()
	c.Logger.Warning("Frame %d: %s failed: %v", seq, stage, err)
}

func (c *Controller[F]) release(frame F) {
	if err := frame.Close(); err != nil {
		c.Logger.Warning("Failed to release frame: %v", err)
	}
}
