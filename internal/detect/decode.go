package detect

import (
	"image"
	"math"

	"github.com/pkg/errors"

	"trafficcounter/internal/model"
)

const ssdRowSize = 7

// DecodeYOLOv8 turns a YOLOv8 output tensor into detections in frame
// coordinates. dims is the tensor shape and must be [1, 4+classes, anchors];
// box values are in input-blob pixels (cx, cy, w, h) and are rescaled from
// input to frame. Candidates below threshold are dropped; NMS is not applied.
func DecodeYOLOv8(data []float32, dims []int, frame, input image.Point, threshold float32, names []string) ([]model.DetectedObject, error) {
	if len(dims) != 3 || dims[0] != 1 {
		return nil, errors.Errorf("unexpected output shape %v", dims)
	}
	attrs, anchors := dims[1], dims[2]
	if attrs < 5 || anchors <= 0 {
		return nil, errors.Errorf("unexpected output shape %v", dims)
	}
	if len(data) != attrs*anchors {
		return nil, errors.Errorf("output has %d values, shape %v needs %d", len(data), dims, attrs*anchors)
	}
	if input.X <= 0 || input.Y <= 0 {
		return nil, errors.Errorf("invalid input size %v", input)
	}

	sx := float64(frame.X) / float64(input.X)
	sy := float64(frame.Y) / float64(input.Y)
	classes := attrs - 4

	var results []model.DetectedObject
	for i := 0; i < anchors; i++ {
		best, bestScore := -1, float32(0)
		for c := 0; c < classes; c++ {
			score := data[(4+c)*anchors+i]
			if score > bestScore {
				best, bestScore = c, score
			}
		}
		if best < 0 || bestScore < threshold {
			continue
		}

		cx := float64(data[i])
		cy := float64(data[anchors+i])
		w := float64(data[2*anchors+i])
		h := float64(data[3*anchors+i])
		if !finite(cx, cy, w, h, float64(bestScore)) {
			return nil, errors.Errorf("non-finite values for anchor %d", i)
		}

		box := clampBox((cx-w/2)*sx, (cy-h/2)*sy, (cx+w/2)*sx, (cy+h/2)*sy, frame)
		results = append(results, model.DetectedObject{
			ClassID:    best,
			Label:      LabelFor(names, best),
			Confidence: float64(bestScore),
			Box:        box,
		})
	}

	return results, nil
}

// DecodeSSD turns SSD rows of [batch, class, confidence, x1, y1, x2, y2]
// with normalized corners into detections. Class ids are translated from
// COCO-91 into COCO-80; ids outside the label space are skipped.
func DecodeSSD(data []float32, frame image.Point, threshold float32, names []string) ([]model.DetectedObject, error) {
	if len(data)%ssdRowSize != 0 {
		return nil, errors.Errorf("output has %d values, not a multiple of %d", len(data), ssdRowSize)
	}

	var results []model.DetectedObject
	for i := 0; i < len(data)/ssdRowSize; i++ {
		row := data[i*ssdRowSize : (i+1)*ssdRowSize]
		confidence := row[2]
		if confidence < threshold {
			continue
		}

		classID, ok := COCO91To80(int(row[1]))
		if !ok {
			continue
		}

		x1, y1, x2, y2 := float64(row[3]), float64(row[4]), float64(row[5]), float64(row[6])
		if !finite(x1, y1, x2, y2, float64(confidence)) {
			return nil, errors.Errorf("non-finite values in row %d", i)
		}

		fw, fh := float64(frame.X), float64(frame.Y)
		results = append(results, model.DetectedObject{
			ClassID:    classID,
			Label:      LabelFor(names, classID),
			Confidence: float64(confidence),
			Box:        clampBox(x1*fw, y1*fh, x2*fw, y2*fh, frame),
		})
	}

	return results, nil
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// clampBox converts corners to a box clipped to the frame.
func clampBox(x1, y1, x2, y2 float64, frame image.Point) model.BoundingBox {
	clamp := func(v float64, hi int) int {
		if v < 0 {
			return 0
		}
		if v > float64(hi) {
			return hi
		}
		return int(v)
	}

	left, top := clamp(x1, frame.X), clamp(y1, frame.Y)
	right, bottom := clamp(x2, frame.X), clamp(y2, frame.Y)
	if right < left {
		right = left
	}
	if bottom < top {
		bottom = top
	}
	return model.BoundingBox{X: left, Y: top, Width: right - left, Height: bottom - top}
}
