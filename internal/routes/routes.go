package routes

import (
	_ "embed"
	"net/http"

	"trafficcounter/internal/config"
	"trafficcounter/internal/handler"
	"trafficcounter/internal/logger"
	"trafficcounter/internal/metrics"
	"trafficcounter/internal/middleware"
	ws "trafficcounter/internal/service/websocket"
)

//go:embed static/index.html
var indexHTML []byte

// Deps are the run components the HTTP surface reads from or controls.
type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	Hub     *ws.HubService
	Stopper handler.Stopper
	Metrics *metrics.Metrics
	Source  string
	Mode    string
}

func indexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// SetupRoutes registers the viewer, control, metrics and log endpoints and
// wraps the mux with the password middleware.
func SetupRoutes(d Deps) http.Handler {
	mux := http.NewServeMux()
	logDir := d.Logger.LogDirectory()

	// API endpoints
	mux.HandleFunc("/api/view", handler.ViewWebsocketHandler(d.Hub, d.Logger))
	mux.HandleFunc("/api/stop", handler.StopHandler(d.Stopper, d.Logger))
	mux.HandleFunc("/api/status", handler.StatusHandler(d.Source, d.Mode, d.Stopper, d.Hub, d.Metrics))
	mux.Handle("/metrics", d.Metrics.Handler())

	// Log endpoints
	for _, level := range []string{"info", "warning", "error"} {
		file := level + ".log"
		mux.HandleFunc("/logs/"+level, handler.ShowLogsHandler(logDir, file))
		mux.HandleFunc("/logs/"+level+"/clear", handler.ClearLogsHandler(d.Logger, file))
	}

	mux.HandleFunc("/", indexHandler)

	return middleware.AuthMiddleware(d.Config.Password)(mux)
}
