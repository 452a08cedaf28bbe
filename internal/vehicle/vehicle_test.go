package vehicle

import (
	"errors"
	"math/rand"
	"testing"

	"trafficcounter/internal/detect"
	"trafficcounter/internal/model"
)

func objects(classIDs ...int) []model.DetectedObject {
	objs := make([]model.DetectedObject, 0, len(classIDs))
	for _, id := range classIDs {
		objs = append(objs, model.DetectedObject{ClassID: id, Confidence: 0.9})
	}
	return objs
}

func TestCountVehicles(t *testing.T) {
	tests := []struct {
		name     string
		classes  []int
		expected int
	}{
		{"empty", nil, 0},
		{"car and unknown", []int{2, 9}, 1},
		{"all vehicle classes", []int{2, 3, 5, 7}, 4},
		{"repeated classes", []int{3, 3, 5}, 3},
		{"pedestrian and sign", []int{0, 11}, 0},
		{"negative and large ids", []int{-1, 1000, 7}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CountVehicles(objects(tt.classes...), Default)
			if got != tt.expected {
				t.Errorf("CountVehicles(%v) = %d, expected %d", tt.classes, got, tt.expected)
			}
		})
	}
}

func TestCountVehicles_OrderInsensitive(t *testing.T) {
	classes := []int{0, 2, 2, 3, 5, 7, 9, 11, 14, 7}
	expected := CountVehicles(objects(classes...), Default)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := append([]int(nil), classes...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		if got := CountVehicles(objects(shuffled...), Default); got != expected {
			t.Fatalf("Count changed with order %v: %d != %d", shuffled, got, expected)
		}
	}
}

func TestClassSet_IDs(t *testing.T) {
	ids := Default.IDs()
	expected := []int{2, 3, 5, 7}
	if len(ids) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, ids)
	}
	for i := range ids {
		if ids[i] != expected[i] {
			t.Errorf("Expected %v, got %v", expected, ids)
		}
	}
}

func TestClassSet_ValidateCOCO80(t *testing.T) {
	if err := Default.Validate(detect.TaxonomyCOCO80, detect.COCO80Labels); err != nil {
		t.Errorf("COCO-80 labels should validate: %v", err)
	}
	if err := Default.Validate(detect.TaxonomyCOCO80, nil); err != nil {
		t.Errorf("Missing labels should only check taxonomy: %v", err)
	}
}

func TestClassSet_ValidateRejectsOtherTaxonomy(t *testing.T) {
	err := Default.Validate("coco91", nil)
	if !errors.Is(err, ErrTaxonomyMismatch) {
		t.Errorf("Expected ErrTaxonomyMismatch, got %v", err)
	}
}

func TestClassSet_ValidateRejectsShiftedLabels(t *testing.T) {
	// A 1-based label file puts "bicycle" at index 2.
	shifted := append([]string{"background"}, detect.COCO80Labels...)

	err := Default.Validate(detect.TaxonomyCOCO80, shifted)
	if !errors.Is(err, ErrTaxonomyMismatch) {
		t.Errorf("Expected ErrTaxonomyMismatch, got %v", err)
	}
}

func TestClassSet_ValidateRejectsShortLabels(t *testing.T) {
	err := Default.Validate(detect.TaxonomyCOCO80, []string{"person", "bicycle", "car"})
	if !errors.Is(err, ErrTaxonomyMismatch) {
		t.Errorf("Expected ErrTaxonomyMismatch, got %v", err)
	}
}

func TestClassSet_String(t *testing.T) {
	expected := "coco80{2=car,3=motorcycle,5=bus,7=truck}"
	if got := Default.String(); got != expected {
		t.Errorf("Expected %s, got %s", expected, got)
	}
}
