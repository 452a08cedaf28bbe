package model

import "image"

// BoundingBox is a detection box in frame pixel coordinates.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect converts the box to an image.Rectangle for drawing.
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Area returns the box area in pixels, zero for degenerate boxes.
func (b BoundingBox) Area() int {
	if b.Width <= 0 || b.Height <= 0 {
		return 0
	}
	return b.Width * b.Height
}

// DetectedObject is a single detection produced for one frame.
type DetectedObject struct {
	ClassID    int         `json:"class_id"`
	Label      string      `json:"label"`
	Confidence float64     `json:"confidence"`
	Box        BoundingBox `json:"box"`
}
