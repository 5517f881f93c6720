package domain

// RunPhase identifies where a run is in its lifecycle
type RunPhase string

const (
	PhaseIdle      RunPhase = "idle"
	PhaseRunning   RunPhase = "running"
	PhaseCompleted RunPhase = "completed"
	PhaseFailed    RunPhase = "failed"
)

// BatchProgress is a snapshot of a running pipeline's progress.
// Percent is in [0,100] and never decreases within a single run.
type BatchProgress struct {
	Phase     RunPhase `json:"phase"`
	Label     string   `json:"label"`
	Processed int      `json:"processed"`
	Total     int      `json:"total"`
	Percent   float64  `json:"percent"`
}

// ProgressSink receives progress snapshots. Publish must never block for long
// and must never fail the run; implementations swallow their own errors.
type ProgressSink interface {
	Publish(p BatchProgress)
}

// ProgressFunc adapts a plain function to a ProgressSink
type ProgressFunc func(p BatchProgress)

func (f ProgressFunc) Publish(p BatchProgress) {
	if f != nil {
		f(p)
	}
}

// NopSink discards all progress snapshots
type NopSink struct{}

func (NopSink) Publish(BatchProgress) {}
