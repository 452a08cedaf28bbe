// Package timestamp decides the run's capture mode and stamps log records.
//
// Live runs use wall-clock time; replay runs use the playback position of
// the media file. The mode is decided once from the configured source.
package timestamp

import (
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/benbjohnson/clock"

	"trafficcounter/internal/model"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// Source is a parsed capture source.
type Source struct {
	Raw    string
	Mode   model.Mode
	Device int    // device index, live only
	Path   string // media path, replay only
	Name   string // final path component, replay only
}

// ParseSource decides the mode from a configured source value: an integer
// (including "0") is a live device index, anything else a replay path.
func ParseSource(raw string) Source {
	trimmed := strings.TrimSpace(raw)
	if device, err := strconv.Atoi(trimmed); err == nil {
		return Source{Raw: raw, Mode: model.ModeLive, Device: device}
	}
	return Source{Raw: raw, Mode: model.ModeVideo, Path: trimmed, Name: filepath.Base(trimmed)}
}

// IsLive reports whether the source is a capture device.
func (s Source) IsLive() bool {
	return s.Mode == model.ModeLive
}

func (s Source) String() string {
	if s.IsLive() {
		return "device " + strconv.Itoa(s.Device)
	}
	return s.Path
}

// Metadata exposes the source's playback position.
type Metadata interface {
	PositionMsec() float64
}

// Policy stamps records for one run. It holds no per-frame state.
type Policy struct {
	source Source
	clock  clock.Clock
}

// NewPolicy fixes the mode for the run. A nil clock means the wall clock.
func NewPolicy(source Source, clk clock.Clock) *Policy {
	if clk == nil {
		clk = clock.New()
	}
	return &Policy{source: source, clock: clk}
}

// Mode returns the run's mode.
func (p *Policy) Mode() model.Mode {
	return p.source.Mode
}

// Stamp builds the record for a frame with the given vehicle count.
func (p *Policy) Stamp(meta Metadata, vehicles int) model.LogRecord {
	if p.source.IsLive() {
		now := p.clock.Now()
		return model.NewLiveRecord(now.Format(DateLayout), now.Format(TimeLayout), vehicles)
	}

	var msec float64
	if meta != nil {
		msec = meta.PositionMsec()
	}
	return model.NewVideoRecord(p.source.Name, Seconds(msec), vehicles)
}

// Seconds converts a playback position in milliseconds to seconds rounded
// to two decimals. Negative or non-finite positions become zero.
//
// Rounding is done on the exact binary value of the seconds, so 15 ms
// (0.01499... s) becomes 0.01, not 0.02.
func Seconds(msec float64) float64 {
	if math.IsNaN(msec) || math.IsInf(msec, 0) || msec <= 0 {
		return 0
	}
	sec, _ := strconv.ParseFloat(strconv.FormatFloat(msec/1000.0, 'f', 2, 64), 64)
	return sec
}
