package model

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLogRecord_MarshalLiveKeyOrder(t *testing.T) {
	data, err := json.Marshal(NewLiveRecord("2025-06-15", "14:30:05", 3))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	expected := `{"mode":"live","date":"2025-06-15","time":"14:30:05","vehicles":3}`
	if string(data) != expected {
		t.Errorf("Expected %s, got %s", expected, data)
	}
}

func TestLogRecord_MarshalVideoKeyOrder(t *testing.T) {
	data, err := json.Marshal(NewVideoRecord("demo.mp4", 1.25, 0))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	expected := `{"mode":"video","video_name":"demo.mp4","timestamp_sec":1.25,"vehicles":0}`
	if string(data) != expected {
		t.Errorf("Expected %s, got %s", expected, data)
	}
}

func TestLogRecord_MarshalIgnoresOtherVariant(t *testing.T) {
	rec := NewLiveRecord("2025-06-15", "14:30:05", 1)
	rec.VideoName = "stray.mp4"

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var keys map[string]any
	if err := json.Unmarshal(data, &keys); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if _, ok := keys["video_name"]; ok {
		t.Errorf("Live record should not carry video_name: %s", data)
	}
	if len(keys) != 4 {
		t.Errorf("Expected 4 keys, got %d", len(keys))
	}
}

func TestLogRecord_MarshalUnknownMode(t *testing.T) {
	if _, err := json.Marshal(LogRecord{Mode: "replay"}); err == nil {
		t.Error("Expected error for unknown mode")
	}
}

func TestLogRecord_UnmarshalMixedArray(t *testing.T) {
	input := `[
		{"mode": "live", "date": "2025-06-15", "time": "08:00:00", "vehicles": 2},
		{"mode": "video", "video_name": "a.mp4", "timestamp_sec": 0.04, "vehicles": 5}
	]`

	var records []LogRecord
	if err := json.Unmarshal([]byte(input), &records); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	expected := []LogRecord{
		NewLiveRecord("2025-06-15", "08:00:00", 2),
		NewVideoRecord("a.mp4", 0.04, 5),
	}
	if diff := cmp.Diff(expected, records); diff != "" {
		t.Errorf("Records mismatch (-want +got):\n%s", diff)
	}
}

func TestLogRecord_UnmarshalRejectsUnknownMode(t *testing.T) {
	var rec LogRecord
	if err := json.Unmarshal([]byte(`{"mode":"stream","vehicles":1}`), &rec); err == nil {
		t.Error("Expected error for unknown mode")
	}
}

func TestRun_Summarize(t *testing.T) {
	run := &Run{}
	run.Summarize([]LogRecord{
		NewVideoRecord("a.mp4", 0, 1),
		NewVideoRecord("a.mp4", 0.04, 0),
		NewVideoRecord("a.mp4", 0.08, 3),
	})

	if run.Frames != 3 {
		t.Errorf("Expected 3 frames, got %d", run.Frames)
	}
	if run.TotalVehicles != 4 {
		t.Errorf("Expected total 4, got %d", run.TotalVehicles)
	}
	if run.PeakVehicles != 3 {
		t.Errorf("Expected peak 3, got %d", run.PeakVehicles)
	}
}
