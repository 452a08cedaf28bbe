package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gocv.io/x/gocv"

	"trafficcounter/internal/config"
	"trafficcounter/internal/logger"
	"trafficcounter/internal/metrics"
	"trafficcounter/internal/model"
	"trafficcounter/internal/pipeline"
	"trafficcounter/internal/repository/sqlite"
	"trafficcounter/internal/routes"
	"trafficcounter/internal/service/ai"
	"trafficcounter/internal/service/capture"
	"trafficcounter/internal/service/display"
	"trafficcounter/internal/service/history"
	"trafficcounter/internal/service/overlay"
	"trafficcounter/internal/service/preview"
	"trafficcounter/internal/service/storage"
	"trafficcounter/internal/service/websocket"
	"trafficcounter/internal/timestamp"
	"trafficcounter/internal/vehicle"
)

const shutdownTimeout = 5 * time.Second

// VideoSource is an opened capture the loop reads frames from.
type VideoSource interface {
	pipeline.Source[*gocv.Mat]
	io.Closer
	FPS() float64
}

type App struct {
	config     *config.Config
	logger     *logger.Logger
	clock      clock.Clock
	metrics    *metrics.Metrics
	openSource func(timestamp.Source) (VideoSource, error)
}

func NewApp(cfg *config.Config, logger *logger.Logger) *App {
	return &App{
		config:     cfg,
		logger:     logger,
		clock:      clock.New(),
		metrics:    metrics.New(),
		openSource: openCapture,
	}
}

func openCapture(src timestamp.Source) (VideoSource, error) {
	source, err := capture.Open(src)
	if err != nil {
		return nil, err
	}
	return source, nil
}

// session holds everything acquired for one run. close releases it in
// reverse order of acquisition.
type session struct {
	source   VideoSource
	detector *ai.DetectorService
	window   *preview.Window
	hub      *websocket.HubService
	server   *http.Server
}

func (s *session) close() error {
	var err error
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		err = multierr.Append(err, s.server.Shutdown(ctx))
		cancel()
	}
	if s.hub != nil {
		s.hub.Stop()
	}
	if s.window != nil {
		err = multierr.Append(err, s.window.Close())
	}
	if s.detector != nil {
		err = multierr.Append(err, s.detector.Close())
	}
	if s.source != nil {
		err = multierr.Append(err, s.source.Close())
	}
	return err
}

// Run counts vehicles from the configured source until it is exhausted or a
// stop is requested, then writes the log. Cancelling ctx requests a stop at
// the next frame boundary.
func (a *App) Run(ctx context.Context) (*model.Run, error) {
	src := timestamp.ParseSource(a.config.VideoSource)
	sink := storage.NewLogSink(a.config.OutputPath)

	started := a.clock.Now()
	summary, err := a.count(ctx, src, sink)
	if err != nil {
		return nil, err
	}

	if _, err := sink.Flush(); err != nil {
		return nil, err
	}
	a.logger.Info("Wrote %d record(s) to %s", sink.Len(), sink.Path())

	records := sink.Records()
	run := history.NewRun(src, started, a.clock.Now(), summary, records)
	a.archive(run, records)
	return run, nil
}

// count acquires capture, detector and sinks, runs the loop and releases
// them all before returning.
func (a *App) count(ctx context.Context, src timestamp.Source, sink *storage.LogSink) (summary pipeline.Summary, err error) {
	s := &session{}
	defer func() {
		if closeErr := s.close(); closeErr != nil {
			a.logger.Warning("Failed to release resources: %v", closeErr)
		}
	}()

	if s.source, err = a.openSource(src); err != nil {
		return summary, err
	}
	a.logger.Info("Opened %s (%s mode, %.1f fps)", src, src.Mode, s.source.FPS())

	if s.detector, err = ai.NewDetectorService(a.config, a.logger); err != nil {
		return summary, err
	}
	if err = vehicle.Default.Validate(s.detector.Taxonomy(), s.detector.Labels()); err != nil {
		return summary, err
	}
	a.logger.Info("Counting %s", vehicle.Default)

	sinks := display.Multi[*gocv.Mat]{display.NewSignal[*gocv.Mat](ctx)}
	if !a.config.Headless {
		s.window = preview.NewWindow(a.config.WindowTitle, a.config.StopKey)
		sinks = append(sinks, s.window)
	}
	if a.config.WebEnabled {
		web := a.startWeb(s, src)
		sinks = append(sinks, web)
	}

	controller := &pipeline.Controller[*gocv.Mat]{
		Source:   s.source,
		Detector: s.detector,
		Display:  sinks,
		Classes:  vehicle.Default,
		Policy:   timestamp.NewPolicy(src, a.clock),
		Recorder: sink,
		Logger:   a.logger,
		Metrics:  a.metrics,
	}
	if len(sinks) > 1 {
		controller.Annotator = overlay.NewAnnotator(vehicle.Default)
	}

	summary = controller.Run()
	a.logger.Info("Processed %d frame(s), %d detection failure(s), %d display failure(s)",
		summary.Frames, summary.DetectionFailures, summary.DisplayFailures)
	return summary, nil
}

func (a *App) startWeb(s *session, src timestamp.Source) *display.Web[*gocv.Mat] {
	s.hub = websocket.NewHubService(a.logger)
	go s.hub.Run()

	web := display.NewWeb[*gocv.Mat](s.hub, preview.EncodeJPEG)
	router := routes.SetupRoutes(routes.Deps{
		Config:  a.config,
		Logger:  a.logger,
		Hub:     s.hub,
		Stopper: web,
		Metrics: a.metrics,
		Source:  src.String(),
		Mode:    string(src.Mode),
	})

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", a.config.Port),
		Handler: router,
	}
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Live viewer server failed: %v", err)
		}
	}()
	a.logger.Info("Live viewer on http://localhost:%d", a.config.Port)
	return web
}

// archive stores the run in the history database. The JSON log is already
// written, so failures here are only reported.
func (a *App) archive(run *model.Run, records []model.LogRecord) {
	if a.config.DBPath == "" {
		return
	}

	db, err := sqlite.New(a.config.DBPath)
	if err != nil {
		a.logger.Warning("Run %s not archived: %v", run.ID, err)
		return
	}
	defer db.Close()

	if err := history.NewArchiver(sqlite.NewCountRepository(db)).Archive(run, records); err != nil {
		a.logger.Warning("Run %s not archived: %v", run.ID, err)
		return
	}
	a.logger.Info("Archived run %s in %s", run.ID, a.config.DBPath)
}
