package model

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Mode is the capture mode of a run, decided once at startup.
type Mode string

const (
	ModeLive  Mode = "live"
	ModeVideo Mode = "video"
)

// LogRecord summarizes one processed frame. It is a tagged union over Mode:
// live records carry Date and Time, video records carry VideoName and
// TimestampSec. Fields of the other variant are ignored when encoding.
type LogRecord struct {
	Mode         Mode
	Date         string
	Time         string
	VideoName    string
	TimestampSec float64
	Vehicles     int
}

// NewLiveRecord builds the live variant.
func NewLiveRecord(date, clock string, vehicles int) LogRecord {
	return LogRecord{Mode: ModeLive, Date: date, Time: clock, Vehicles: vehicles}
}

// NewVideoRecord builds the replay variant.
func NewVideoRecord(videoName string, timestampSec float64, vehicles int) LogRecord {
	return LogRecord{Mode: ModeVideo, VideoName: videoName, TimestampSec: timestampSec, Vehicles: vehicles}
}

// Field order of these structs is the on-disk key order.
type liveRecord struct {
	Mode     Mode   `json:"mode"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Vehicles int    `json:"vehicles"`
}

type videoRecord struct {
	Mode         Mode    `json:"mode"`
	VideoName    string  `json:"video_name"`
	TimestampSec float64 `json:"timestamp_sec"`
	Vehicles     int     `json:"vehicles"`
}

// MarshalJSON emits only the keys of the record's variant.
func (r LogRecord) MarshalJSON() ([]byte, error) {
	switch r.Mode {
	case ModeLive:
		return json.Marshal(liveRecord{Mode: r.Mode, Date: r.Date, Time: r.Time, Vehicles: r.Vehicles})
	case ModeVideo:
		return json.Marshal(videoRecord{Mode: r.Mode, VideoName: r.VideoName, TimestampSec: r.TimestampSec, Vehicles: r.Vehicles})
	default:
		return nil, errors.Errorf("unknown record mode %q", r.Mode)
	}
}

// UnmarshalJSON dispatches on the "mode" key.
func (r *LogRecord) UnmarshalJSON(data []byte) error {
	var probe struct {
		Mode Mode `json:"mode"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	switch probe.Mode {
	case ModeLive:
		var lr liveRecord
		if err := json.Unmarshal(data, &lr); err != nil {
			return err
		}
		*r = NewLiveRecord(lr.Date, lr.Time, lr.Vehicles)
	case ModeVideo:
		var vr videoRecord
		if err := json.Unmarshal(data, &vr); err != nil {
			return err
		}
		*r = NewVideoRecord(vr.VideoName, vr.TimestampSec, vr.Vehicles)
	default:
		return errors.Errorf("unknown record mode %q", probe.Mode)
	}
	return nil
}
