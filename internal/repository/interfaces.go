package repository

import (
	"trafficcounter/internal/model"
)

// CountRepository archives finished runs and their per-frame records.
type CountRepository interface {
	// SaveRun stores the run and all of its records atomically.
	SaveRun(run *model.Run, records []model.LogRecord) error

	// ListRuns returns the most recent runs first. limit <= 0 means all.
	ListRuns(limit int) ([]model.Run, error)
	GetRun(id string) (*model.Run, error)

	// GetRecords returns the records of a run in frame order.
	GetRecords(runID string) ([]model.LogRecord, error)

	DeleteRun(id string) error
}
