package model

import "time"

// Run is the archived summary of one counting run.
// TotalVehicles sums per-frame counts; vehicles are not tracked across frames.
type Run struct {
	ID                string    `json:"id"`
	Mode              Mode      `json:"mode"`
	Source            string    `json:"source"`
	VideoName         string    `json:"video_name,omitempty"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
	Frames            int       `json:"frames"`
	TotalVehicles     int       `json:"total_vehicles"`
	PeakVehicles      int       `json:"peak_vehicles"`
	DetectionFailures int       `json:"detection_failures"`
	StopReason        string    `json:"stop_reason"`
}

// Summarize fills the frame and vehicle totals of the run from its records.
func (r *Run) Summarize(records []LogRecord) {
	r.Frames = len(records)
	r.TotalVehicles = 0
	r.PeakVehicles = 0
	for _, rec := range records {
		r.TotalVehicles += rec.Vehicles
		if rec.Vehicles > r.PeakVehicles {
			r.PeakVehicles = rec.Vehicles
		}
	}
}
