// Package vehicle reduces a frame's detections to a vehicle count.
//
// The vehicle class ids are a contract with the detector's label space. A
// ClassSet records the taxonomy it was written against so that a detector
// with a different label space is rejected at startup instead of silently
// miscounting.
package vehicle

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"trafficcounter/internal/detect"
	"trafficcounter/internal/model"
)

// ErrTaxonomyMismatch is returned when a detector's label space does not
// match the one a ClassSet was defined for.
var ErrTaxonomyMismatch = errors.New("vehicle classes do not match detector taxonomy")

// ClassSet is an immutable set of detector class ids counted as vehicles.
type ClassSet struct {
	taxonomy string
	ids      map[int]struct{}
	// names accepted for each id when validating detector labels
	names map[int][]string
}

// Default is car=2, motorbike=3, bus=5, truck=7 in COCO-80.
var Default = NewClassSet(detect.TaxonomyCOCO80, map[int][]string{
	2: {"car"},
	3: {"motorcycle", "motorbike"},
	5: {"bus"},
	7: {"truck"},
})

// NewClassSet builds a set for the given taxonomy. names maps each class id
// to the label names acceptable for it.
func NewClassSet(taxonomy string, names map[int][]string) ClassSet {
	s := ClassSet{
		taxonomy: taxonomy,
		ids:      make(map[int]struct{}, len(names)),
		names:    make(map[int][]string, len(names)),
	}
	for id, n := range names {
		s.ids[id] = struct{}{}
		s.names[id] = append([]string(nil), n...)
	}
	return s
}

// Contains reports whether classID is a vehicle class.
func (s ClassSet) Contains(classID int) bool {
	_, ok := s.ids[classID]
	return ok
}

// IDs returns the class ids in ascending order.
func (s ClassSet) IDs() []int {
	ids := make([]int, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Taxonomy names the label space the set was written against.
func (s ClassSet) Taxonomy() string {
	return s.taxonomy
}

func (s ClassSet) String() string {
	parts := make([]string, 0, len(s.ids))
	for _, id := range s.IDs() {
		parts = append(parts, fmt.Sprintf("%d=%s", id, s.names[id][0]))
	}
	return fmt.Sprintf("%s{%s}", s.taxonomy, strings.Join(parts, ","))
}

// Validate checks the set against a detector's taxonomy and label names.
// labels may be nil when the detector does not publish names; the taxonomy
// must still match.
func (s ClassSet) Validate(taxonomy string, labels []string) error {
	if taxonomy != s.taxonomy {
		return errors.Wrapf(ErrTaxonomyMismatch, "detector reports %q, classes defined for %q", taxonomy, s.taxonomy)
	}
	if labels == nil {
		return nil
	}

	for _, id := range s.IDs() {
		got := strings.ToLower(strings.TrimSpace(detect.LabelFor(labels, id)))
		if !containsName(s.names[id], got) {
			return errors.Wrapf(ErrTaxonomyMismatch, "class %d is %q, expected one of %v", id, got, s.names[id])
		}
	}
	return nil
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// CountVehicles returns how many objects belong to the set. Unknown class
// ids are not an error; they simply do not count.
func CountVehicles(objects []model.DetectedObject, set ClassSet) int {
	count := 0
	for _, obj := range objects {
		if set.Contains(obj.ClassID) {
			count++
		}
	}
	return count
}
