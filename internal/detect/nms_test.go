package detect

import (
	"math"
	"testing"

	"trafficcounter/internal/model"
)

func box(x, y, w, h int) model.BoundingBox {
	return model.BoundingBox{X: x, Y: y, Width: w, Height: h}
}

func TestIoU(t *testing.T) {
	tests := []struct {
		name     string
		a, b     model.BoundingBox
		expected float64
	}{
		{"identical", box(0, 0, 10, 10), box(0, 0, 10, 10), 1},
		{"disjoint", box(0, 0, 10, 10), box(20, 20, 10, 10), 0},
		{"half overlap", box(0, 0, 10, 10), box(5, 0, 10, 10), 50.0 / 150.0},
		{"degenerate", box(0, 0, 0, 10), box(0, 0, 10, 10), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IoU(tt.a, tt.b)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("IoU = %f, expected %f", got, tt.expected)
			}
		})
	}
}

func TestNMS_SuppressesOverlapsPerClass(t *testing.T) {
	objects := []model.DetectedObject{
		{ClassID: 2, Confidence: 0.6, Box: box(1, 1, 10, 10)},
		{ClassID: 2, Confidence: 0.9, Box: box(0, 0, 10, 10)},
		{ClassID: 7, Confidence: 0.8, Box: box(0, 0, 10, 10)},
		{ClassID: 2, Confidence: 0.5, Box: box(50, 50, 10, 10)},
	}

	kept := NMS(objects, 0.5)
	if len(kept) != 3 {
		t.Fatalf("Expected 3 kept detections, got %d", len(kept))
	}

	if kept[0].Confidence != 0.9 || kept[1].ClassID != 7 || kept[2].Box.X != 50 {
		t.Errorf("Unexpected NMS result: %+v", kept)
	}
}

func TestNMS_Empty(t *testing.T) {
	if kept := NMS(nil, 0.5); len(kept) != 0 {
		t.Errorf("Expected no detections, got %d", len(kept))
	}
}
