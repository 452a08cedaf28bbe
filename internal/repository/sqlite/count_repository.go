package sqlite

import (
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"trafficcounter/internal/model"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// CountRepository implements repository.CountRepository for SQLite.
type CountRepository struct {
	db *DB
}

func NewCountRepository(db *DB) *CountRepository {
	return &CountRepository{db: db}
}

// SaveRun inserts the run row and every record in a single transaction.
func (r *CountRepository) SaveRun(run *model.Run, records []model.LogRecord) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (id, mode, source, video_name, started_at, finished_at,
			frames, total_vehicles, peak_vehicles, detection_failures, stop_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, string(run.Mode), run.Source, run.VideoName,
		run.StartedAt.UTC(), run.FinishedAt.UTC(),
		run.Frames, run.TotalVehicles, run.PeakVehicles, run.DetectionFailures, run.StopReason)
	if err != nil {
		return errors.Wrapf(err, "failed to insert run %s", run.ID)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO counts (run_id, seq, mode, date, time, video_name, timestamp_sec, vehicles)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare statement")
	}
	defer stmt.Close()

	for i, rec := range records {
		if _, err := stmt.Exec(run.ID, i, string(rec.Mode), rec.Date, rec.Time,
			rec.VideoName, rec.TimestampSec, rec.Vehicles); err != nil {
			return errors.Wrapf(err, "failed to insert record %d", i)
		}
	}

	return tx.Commit()
}

const runColumns = `id, mode, source, video_name, started_at, finished_at,
	frames, total_vehicles, peak_vehicles, detection_failures, stop_reason`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (model.Run, error) {
	var (
		run               model.Run
		mode              string
		started, finished time.Time
	)
	err := s.Scan(&run.ID, &mode, &run.Source, &run.VideoName, &started, &finished,
		&run.Frames, &run.TotalVehicles, &run.PeakVehicles, &run.DetectionFailures, &run.StopReason)
	run.Mode = model.Mode(mode)
	run.StartedAt = started
	run.FinishedAt = finished
	return run, err
}

// ListRuns returns runs newest first.
func (r *CountRepository) ListRuns(limit int) ([]model.Run, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan run")
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *CountRepository) GetRun(id string) (*model.Run, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(ErrRunNotFound, id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get run")
	}
	return &run, nil
}

// GetRecords returns the records of a run in the order they were produced.
func (r *CountRepository) GetRecords(runID string) ([]model.LogRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT mode, date, time, video_name, timestamp_sec, vehicles
		FROM counts WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query counts")
	}
	defer rows.Close()

	var records []model.LogRecord
	for rows.Next() {
		var (
			rec  model.LogRecord
			mode string
		)
		if err := rows.Scan(&mode, &rec.Date, &rec.Time, &rec.VideoName, &rec.TimestampSec, &rec.Vehicles); err != nil {
			return nil, errors.Wrap(err, "failed to scan count")
		}
		rec.Mode = model.Mode(mode)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteRun removes a run and, through the foreign key, its records.
func (r *CountRepository) DeleteRun(id string) error {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete run")
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errors.Wrap(ErrRunNotFound, id)
	}
	return nil
}
