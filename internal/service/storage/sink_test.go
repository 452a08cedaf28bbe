package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"trafficcounter/internal/model"
)

func TestLogSink_NoWriteBeforeFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traffic_counts.json")
	sink := NewLogSink(path)

	sink.Append(model.NewVideoRecord("demo.mp4", 0, 1))
	sink.Append(model.NewVideoRecord("demo.mp4", 0.04, 2))

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Output file should not exist before Flush")
	}
	if sink.Len() != 2 {
		t.Errorf("Expected 2 records, got %d", sink.Len())
	}
}

func TestLogSink_FlushPreservesOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traffic_counts.json")
	sink := NewLogSink(path)

	var expected []model.LogRecord
	for i := 0; i < 50; i++ {
		rec := model.NewVideoRecord("demo.mp4", float64(i)/100, i%4)
		expected = append(expected, rec)
		sink.Append(rec)
	}

	written, err := sink.Flush()
	if err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if string(data) != string(written) {
		t.Error("Flush should return the bytes it wrote")
	}

	var got []model.LogRecord
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Output is not a JSON array of records: %v", err)
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("Records mismatch (-want +got):\n%s", diff)
	}
}

func TestLogSink_FlushFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	sink := NewLogSink(path)
	sink.Append(model.NewLiveRecord("2025-06-15", "14:30:00", 2))

	data, err := sink.Flush()
	if err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	expected := `[
    {
        "mode": "live",
        "date": "2025-06-15",
        "time": "14:30:00",
        "vehicles": 2
    }
]
`
	if string(data) != expected {
		t.Errorf("Unexpected output:\n%s", data)
	}
}

func TestLogSink_FlushEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	data, err := NewLogSink(path).Flush()
	if err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("Expected empty array, got %s", data)
	}
}

func TestLogSink_FlushReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	if err := os.WriteFile(path, []byte("old content that is longer than the new one"), 0644); err != nil {
		t.Fatalf("Failed to seed file: %v", err)
	}

	sink := NewLogSink(path)
	sink.Append(model.NewVideoRecord("a.mp4", 0, 0))
	if _, err := sink.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "old content") {
		t.Error("Old content should be replaced")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("Expected only the output file, found %d entries", len(entries))
	}
}

func TestLogSink_FlushFailureReportsLoss(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "out.json")
	sink := NewLogSink(path)
	sink.Append(model.NewVideoRecord("a.mp4", 0, 1))
	sink.Append(model.NewVideoRecord("a.mp4", 0.04, 1))

	_, err := sink.Flush()
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("Expected ErrPersistence, got %v", err)
	}
	if !strings.Contains(err.Error(), "2 record(s) lost") {
		t.Errorf("Error should report the lost records: %v", err)
	}
}

func TestLogSink_RecordsIsCopy(t *testing.T) {
	sink := NewLogSink("unused.json")
	sink.Append(model.NewVideoRecord("a.mp4", 0, 1))

	records := sink.Records()
	records[0].Vehicles = 99

	if sink.Records()[0].Vehicles != 1 {
		t.Error("Records should return a copy")
	}
}
