package app

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"

	"trafficcounter/internal/config"
	"trafficcounter/internal/logger"
	"trafficcounter/internal/service/capture"
	"trafficcounter/internal/timestamp"
)

func newTestApp(t *testing.T, output string) *App {
	t.Helper()
	cfg := &config.Config{
		VideoSource: "traffic1.mp4",
		OutputPath:  output,
		Headless:    true,
	}
	return NewApp(cfg, logger.NewWithWriter(io.Discard))
}

func unavailable(src timestamp.Source) (VideoSource, error) {
	return nil, errors.Wrapf(capture.ErrSourceUnavailable, "%s: not opened", src)
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRun_SourceUnavailableKeepsExistingLog(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "traffic_counts.json")
	previous := []byte("[\n    {\"mode\": \"live\", \"date\": \"2024-05-01\", \"time\": \"10:00:00\", \"vehicles\": 2}\n]\n")
	if err := os.WriteFile(output, previous, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	a := newTestApp(t, output)
	a.openSource = unavailable

	run, err := a.Run(context.Background())
	if !errors.Is(err, capture.ErrSourceUnavailable) {
		t.Fatalf("Run error = %v, expected ErrSourceUnavailable", err)
	}
	if run != nil {
		t.Errorf("Expected no run, got %+v", run)
	}

	got, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !bytes.Equal(got, previous) {
		t.Errorf("Log was modified:\n%s", got)
	}
	if names := dirEntries(t, dir); len(names) != 1 || names[0] != "traffic_counts.json" {
		t.Errorf("Unexpected files in output directory: %v", names)
	}
}

func TestRun_SourceUnavailableCreatesNoLog(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "traffic_counts.json")

	a := newTestApp(t, output)
	a.openSource = unavailable

	if _, err := a.Run(context.Background()); !errors.Is(err, capture.ErrSourceUnavailable) {
		t.Fatalf("Run error = %v, expected ErrSourceUnavailable", err)
	}
	if names := dirEntries(t, dir); len(names) != 0 {
		t.Errorf("Expected empty output directory, got %v", names)
	}
}

func TestRun_MissingVideoFile(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "traffic_counts.json")

	a := newTestApp(t, output)
	a.config.VideoSource = filepath.Join(dir, "missing.mp4")

	if _, err := a.Run(context.Background()); !errors.Is(err, capture.ErrSourceUnavailable) {
		t.Fatalf("Run error = %v, expected ErrSourceUnavailable", err)
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Errorf("Log should not exist, stat error: %v", err)
	}
}
