package api

import (
	"sync"

	"github.com/gitsecureops/access-reconciler/internal/domain"
)

// RunRegistry keeps the latest progress snapshot per run so clients can poll
// while a scan or removal is executing.
type RunRegistry struct {
	mu   sync.RWMutex
	runs map[string]domain.BatchProgress
}

// NewRunRegistry creates an empty run registry
func NewRunRegistry() *RunRegistry {
	return &RunRegistry{runs: make(map[string]domain.BatchProgress)}
}

// Sink returns a progress sink that records snapshots under the given run ID
func (r *RunRegistry) Sink(id string) domain.ProgressSink {
	return domain.ProgressFunc(func(p domain.BatchProgress) {
		r.mu.Lock()
		r.runs[id] = p
		r.mu.Unlock()
	})
}

// Get returns the latest snapshot for a run
func (r *RunRegistry) Get(id string) (domain.BatchProgress, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.runs[id]
	return p, ok
}
