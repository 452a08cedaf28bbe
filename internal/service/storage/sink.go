package storage

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"trafficcounter/internal/model"
)

// ErrPersistence marks a failed flush. The records held in memory are lost.
var ErrPersistence = errors.New("failed to persist vehicle counts")

// LogSink accumulates log records in memory and writes them out once.
// It is owned by the frame loop and is not safe for concurrent use.
type LogSink struct {
	path    string
	records []model.LogRecord
}

// NewLogSink creates a sink that will write to path on Flush.
func NewLogSink(path string) *LogSink {
	return &LogSink{
		path:    path,
		records: make([]model.LogRecord, 0, 1024),
	}
}

// Append adds a record after all previously appended ones.
func (s *LogSink) Append(record model.LogRecord) {
	s.records = append(s.records, record)
}

// Len returns the number of buffered records.
func (s *LogSink) Len() int {
	return len(s.records)
}

// Records returns a copy of the buffered records in insertion order.
func (s *LogSink) Records() []model.LogRecord {
	return append([]model.LogRecord(nil), s.records...)
}

// Path is the output file.
func (s *LogSink) Path() string {
	return s.path
}

// Encode renders the records as an indented JSON array, "[]" when empty.
func (s *LogSink) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(s.records, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Flush writes all records to the output file in a single atomic replace
// and returns the bytes written. On failure the error wraps ErrPersistence
// and the file is left as it was.
func (s *LogSink) Flush() ([]byte, error) {
	data, err := s.Encode()
	if err != nil {
		return nil, errors.Wrapf(ErrPersistence, "encode %d record(s): %v", len(s.records), err)
	}

	if err := writeFileAtomic(s.path, data, 0644); err != nil {
		return nil, errors.Wrapf(ErrPersistence, "%d record(s) lost writing %s: %v", len(s.records), s.path, err)
	}
	return data, nil
}

// writeFileAtomic writes to a temporary file in the target directory and
// renames it over path, so readers see either the old or the new content.
func writeFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Chmod(perm); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
