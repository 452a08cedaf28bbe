package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"trafficcounter/internal/app"
	"trafficcounter/internal/config"
	"trafficcounter/internal/logger"
	"trafficcounter/internal/repository/sqlite"
)

const (
	flagSource   = "source"
	flagOutput   = "output"
	flagHeadless = "headless"
	flagWeb      = "web"
	flagDB       = "db"
	flagModel    = "model"
	flagFormat   = "format"
	flagLimit    = "limit"
	flagRun      = "run"
)

func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: flagSource, Usage: "device index or video file (VIDEO_SOURCE)"},
		&cli.StringFlag{Name: flagOutput, Usage: "JSON log written at shutdown (OUTPUT_PATH)"},
		&cli.BoolFlag{Name: flagHeadless, Usage: "do not open a preview window (HEADLESS)"},
		&cli.BoolFlag{Name: flagWeb, Usage: "serve the live viewer over HTTP (WEB_ENABLED)"},
		&cli.StringFlag{Name: flagDB, Usage: "archive the run in this SQLite file (DB_PATH)"},
		&cli.StringFlag{Name: flagModel, Usage: "detector weights (MODEL_PATH)"},
		&cli.StringFlag{Name: flagFormat, Usage: "detector output format: yolov8 or ssd (MODEL_FORMAT)"},
	}
}

func main() {
	counter := &cli.App{
		Name:   "counter",
		Usage:  "count vehicles in a camera feed or video file",
		Flags:  runFlags(),
		Action: runAction,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "count vehicles and write the JSON log (default)",
				Flags:  runFlags(),
				Action: runAction,
			},
			{
				Name:  "history",
				Usage: "list archived runs, or the records of one run",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagDB, Usage: "run history database (DB_PATH)"},
					&cli.IntFlag{Name: flagLimit, Value: 20, Usage: "number of runs to list, 0 for all"},
					&cli.StringFlag{Name: flagRun, Usage: "print the records of this run id"},
				},
				Action: historyAction,
			},
		},
	}

	if err := counter.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "counter: %v\n", err)
		os.Exit(1)
	}
}

// applyFlags lets command line flags override the environment.
func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet(flagSource) {
		cfg.VideoSource = c.String(flagSource)
	}
	if c.IsSet(flagOutput) {
		cfg.OutputPath = c.String(flagOutput)
	}
	if c.IsSet(flagHeadless) {
		cfg.Headless = c.Bool(flagHeadless)
	}
	if c.IsSet(flagWeb) {
		cfg.WebEnabled = c.Bool(flagWeb)
	}
	if c.IsSet(flagDB) {
		cfg.DBPath = c.String(flagDB)
	}
	if c.IsSet(flagModel) {
		cfg.ModelPath = c.String(flagModel)
	}
	if c.IsSet(flagFormat) {
		cfg.ModelFormat = c.String(flagFormat)
	}
}

func runAction(c *cli.Context) error {
	cfg := config.Load()
	applyFlags(c, cfg)

	log, err := logger.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	run, err := app.NewApp(cfg, log).Run(ctx)
	if err != nil {
		log.Error("Run failed: %v", err)
		return err
	}

	fmt.Fprintf(c.App.Writer, "%d frame(s), %d vehicle(s) counted, peak %d, stopped: %s\n",
		run.Frames, run.TotalVehicles, run.PeakVehicles, run.StopReason)
	return nil
}

func historyAction(c *cli.Context) error {
	cfg := config.Load()
	if c.IsSet(flagDB) {
		cfg.DBPath = c.String(flagDB)
	}
	if cfg.DBPath == "" {
		return cli.Exit("no history database: set DB_PATH or --db", 1)
	}

	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	repo := sqlite.NewCountRepository(db)

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	defer w.Flush()

	if id := c.String(flagRun); id != "" {
		records, err := repo.GetRecords(id)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "MODE\tWHEN\tVEHICLES")
		for _, rec := range records {
			when := rec.Date + " " + rec.Time
			if rec.VideoName != "" {
				when = fmt.Sprintf("%s@%.2fs", rec.VideoName, rec.TimestampSec)
			}
			fmt.Fprintf(w, "%s\t%s\t%d\n", rec.Mode, when, rec.Vehicles)
		}
		return nil
	}

	runs, err := repo.ListRuns(c.Int(flagLimit))
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "ID\tSTARTED\tMODE\tSOURCE\tFRAMES\tTOTAL\tPEAK\tSTOP")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Mode, r.Source,
			r.Frames, r.TotalVehicles, r.PeakVehicles, r.StopReason)
	}
	return nil
}
