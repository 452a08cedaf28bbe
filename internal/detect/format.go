package detect

import (
	"image"
	"strings"

	"github.com/pkg/errors"
)

// Format selects how a network's output tensor is decoded.
type Format string

const (
	// FormatYOLOv8 is an ONNX YOLOv8 export with output [1, 4+classes, anchors].
	FormatYOLOv8 Format = "yolov8"
	// FormatSSD is a TF SSD MobileNet graph with rows of
	// [batch, class, confidence, x1, y1, x2, y2].
	FormatSSD Format = "ssd"
)

// ParseFormat accepts a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatYOLOv8, "yolo":
		return FormatYOLOv8, nil
	case FormatSSD:
		return FormatSSD, nil
	default:
		return "", errors.Errorf("unknown model format %q", s)
	}
}

// InputSize is the blob size the format's networks expect.
func (f Format) InputSize() image.Point {
	if f == FormatSSD {
		return image.Pt(300, 300)
	}
	return image.Pt(640, 640)
}
