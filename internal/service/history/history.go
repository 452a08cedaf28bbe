// Package history turns a finished loop into an archived run.
package history

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"trafficcounter/internal/model"
	"trafficcounter/internal/pipeline"
	"trafficcounter/internal/repository"
	"trafficcounter/internal/timestamp"
)

// NewRun builds the archive entry for a loop that started at started and
// produced records.
func NewRun(source timestamp.Source, started, finished time.Time, summary pipeline.Summary, records []model.LogRecord) *model.Run {
	run := &model.Run{
		ID:                uuid.NewString(),
		Mode:              source.Mode,
		Source:            source.Raw,
		StartedAt:         started,
		FinishedAt:        finished,
		DetectionFailures: summary.DetectionFailures,
		StopReason:        string(summary.Reason),
	}
	if !source.IsLive() {
		run.VideoName = source.Name
	}
	run.Summarize(records)
	return run
}

// Archiver stores runs in a CountRepository. A nil *Archiver stores nothing.
type Archiver struct {
	repo repository.CountRepository
}

func NewArchiver(repo repository.CountRepository) *Archiver {
	return &Archiver{repo: repo}
}

// Archive saves the run with its records.
func (a *Archiver) Archive(run *model.Run, records []model.LogRecord) error {
	if a == nil || a.repo == nil {
		return nil
	}
	if err := a.repo.SaveRun(run, records); err != nil {
		return errors.Wrapf(err, "archive run %s", run.ID)
	}
	return nil
}
