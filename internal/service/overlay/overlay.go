package overlay

import (
	"fmt"
	"image"
	"image/color"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"trafficcounter/internal/model"
	"trafficcounter/internal/vehicle"
)

var (
	countOrigin = image.Pt(20, 40)
	green       = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	red         = color.RGBA{R: 255, G: 0, B: 0, A: 0}
	gray        = color.RGBA{R: 160, G: 160, B: 160, A: 0}
)

// Annotator draws detections and the running vehicle count.
type Annotator struct {
	classes vehicle.ClassSet
}

// NewAnnotator highlights members of classes; other detections are drawn in gray.
func NewAnnotator(classes vehicle.ClassSet) *Annotator {
	return &Annotator{classes: classes}
}

// Annotate returns a copy of frame with boxes, labels and "Vehicles: N".
// The caller owns the returned frame.
func (a *Annotator) Annotate(frame *gocv.Mat, detections []model.DetectedObject, vehicles int) (*gocv.Mat, error) {
	if frame == nil || frame.Empty() {
		return nil, errors.New("cannot annotate an empty frame")
	}

	annotated := frame.Clone()
	if err := a.draw(&annotated, detections, vehicles); err != nil {
		annotated.Close()
		return nil, err
	}
	return &annotated, nil
}

func (a *Annotator) draw(mat *gocv.Mat, detections []model.DetectedObject, vehicles int) error {
	for _, detection := range detections {
		c := gray
		if a.classes.Contains(detection.ClassID) {
			c = red
		}

		if err := gocv.Rectangle(mat, detection.Box.Rect(), c, 2); err != nil {
			return errors.Wrap(err, "failed to draw rectangle")
		}

		label := fmt.Sprintf("%s (%.2f)", labelOf(detection), detection.Confidence)
		pt := image.Pt(detection.Box.X, detection.Box.Y-5)
		if err := gocv.PutText(mat, label, pt, gocv.FontHersheySimplex, 0.5, c, 1); err != nil {
			return errors.Wrap(err, "failed to draw text")
		}
	}

	text := fmt.Sprintf("Vehicles: %d", vehicles)
	if err := gocv.PutText(mat, text, countOrigin, gocv.FontHersheySimplex, 1, green, 2); err != nil {
		return errors.Wrap(err, "failed to draw count")
	}
	return nil
}

func labelOf(d model.DetectedObject) string {
	if d.Label != "" {
		return d.Label
	}
	return fmt.Sprintf("class_%d", d.ClassID)
}
