package handler

import (
	"encoding/json"
	"net/http"

	"trafficcounter/internal/logger"
	"trafficcounter/internal/metrics"
)

// Stopper is the remote stop switch of a running loop.
type Stopper interface {
	RequestStop()
	Stopping() bool
}

// ViewerCounter reports how many live viewers are connected.
type ViewerCounter interface {
	GetClientCount() int
}

// Status is the body of GET /api/status.
type Status struct {
	Source   string           `json:"source"`
	Mode     string           `json:"mode"`
	Stopping bool             `json:"stopping"`
	Viewers  int              `json:"viewers"`
	Metrics  metrics.Snapshot `json:"metrics"`
}

// StopHandler handles POST /api/stop. The loop ends after the frame in
// progress and the log is flushed as for any other stop.
func StopHandler(stopper Stopper, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !stopper.Stopping() {
			logger.Info("Stop requested from %s", r.RemoteAddr)
		}
		stopper.RequestStop()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"status": "stopping"})
	}
}

// StatusHandler reports the run's counters.
func StatusHandler(source, mode string, stopper Stopper, viewers ViewerCounter, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := Status{
			Source:   source,
			Mode:     mode,
			Stopping: stopper.Stopping(),
			Viewers:  viewers.GetClientCount(),
			Metrics:  m.Snapshot(),
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(status); err != nil {
			http.Error(w, "Failed to encode status", http.StatusInternalServerError)
		}
	}
}
