package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"trafficcounter/internal/model"
	"trafficcounter/internal/pipeline"
	"trafficcounter/internal/repository/sqlite"
	"trafficcounter/internal/service/history"
	"trafficcounter/internal/timestamp"
)

// importedReason marks runs loaded from an existing JSON log.
const importedReason = "imported"

func main() {
	migrate := &cli.App{
		Name:  "migrate",
		Usage: "import an existing traffic_counts.json into the run history database",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Value: "traffic_counts.json", Usage: "JSON log to import"},
			&cli.StringFlag{Name: "db", Value: "data/counts.db", Usage: "run history database"},
			&cli.StringFlag{Name: "source", Usage: "source recorded for the run, defaults to the video name or input file"},
		},
		Action: migrateAction,
	}

	if err := migrate.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func migrateAction(c *cli.Context) error {
	input := c.String("input")
	dbPath := c.String("db")

	fmt.Fprintf(c.App.Writer, "Importing %s into %s\n", input, dbPath)

	records, err := readLog(input)
	if err != nil {
		return err
	}
	mode, err := logMode(records)
	if err != nil {
		return err
	}

	info, err := os.Stat(input)
	if err != nil {
		return err
	}

	source := c.String("source")
	if source == "" {
		source = defaultSource(input, records)
	}
	src := timestamp.ParseSource(source)
	src.Mode = mode

	run := history.NewRun(src, info.ModTime(), info.ModTime(),
		pipeline.Summary{Reason: importedReason}, records)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return errors.Wrap(err, "failed to create database directory")
	}
	db, err := sqlite.New(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := history.NewArchiver(sqlite.NewCountRepository(db)).Archive(run, records); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Imported run %s: %d record(s), %d vehicle(s), peak %d\n",
		run.ID, run.Frames, run.TotalVehicles, run.PeakVehicles)
	return nil
}

func readLog(path string) ([]model.LogRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read log")
	}
	var records []model.LogRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return records, nil
}

// logMode returns the mode shared by every record. A log written by one run
// never mixes modes.
func logMode(records []model.LogRecord) (model.Mode, error) {
	if len(records) == 0 {
		return model.ModeVideo, nil
	}
	mode := records[0].Mode
	for i, rec := range records {
		if rec.Mode != mode {
			return "", errors.Errorf("record %d is %s, expected %s", i, rec.Mode, mode)
		}
	}
	return mode, nil
}

func defaultSource(input string, records []model.LogRecord) string {
	if len(records) > 0 && records[0].VideoName != "" {
		return records[0].VideoName
	}
	return filepath.Base(input)
}
