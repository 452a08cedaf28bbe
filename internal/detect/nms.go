package detect

import (
	"sort"

	"trafficcounter/internal/model"
)

// NMS performs class-aware greedy non-maximum suppression. Within a class,
// a detection is dropped when its IoU with a higher-confidence kept detection
// exceeds iouThreshold. The result is ordered by descending confidence.
func NMS(objects []model.DetectedObject, iouThreshold float64) []model.DetectedObject {
	if len(objects) == 0 {
		return nil
	}

	order := make([]int, len(objects))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return objects[order[a]].Confidence > objects[order[b]].Confidence
	})

	kept := make([]model.DetectedObject, 0, len(objects))
	for _, idx := range order {
		candidate := objects[idx]
		suppressed := false
		for _, k := range kept {
			if k.ClassID == candidate.ClassID && IoU(k.Box, candidate.Box) > iouThreshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, candidate)
		}
	}
	return kept
}

// IoU is the intersection over union of two boxes.
func IoU(a, b model.BoundingBox) float64 {
	inter := a.Rect().Intersect(b.Rect())
	interArea := model.BoundingBox{Width: inter.Dx(), Height: inter.Dy()}.Area()
	if interArea == 0 {
		return 0
	}
	union := a.Area() + b.Area() - interArea
	if union <= 0 {
		return 0
	}
	return float64(interArea) / float64(union)
}
