package reconcile

import (
	"context"
	"time"

	"github.com/gitsecureops/access-reconciler/internal/domain"
)

// Removal progress reserves the first 5% for run initialization.
const removalStartPercent = 5.0

// Remover revokes the collaborator grants described by a set of AccessRecords.
// Records are processed strictly sequentially so each reported progress step
// corresponds to exactly one removal attempt.
type Remover struct {
	remover CollaboratorRemover
	sink    domain.ProgressSink
	delay   time.Duration
}

// NewRemover creates a new access remover
func NewRemover(remover CollaboratorRemover, sink domain.ProgressSink) *Remover {
	if sink == nil {
		sink = domain.NopSink{}
	}
	return &Remover{
		remover: remover,
		sink:    sink,
		delay:   DefaultRemovalDelay,
	}
}

// Remove attempts every record in order, tolerating per-record failures.
// The returned summary's outcomes preserve input order. Only context
// cancellation aborts the run.
func (r *Remover) Remove(ctx context.Context, records []domain.AccessRecord) (*domain.RemovalSummary, error) {
	summary := &domain.RemovalSummary{}

	r.sink.Publish(domain.BatchProgress{
		Phase:   domain.PhaseRunning,
		Label:   "Removing Access",
		Total:   len(records),
		Percent: removalStartPercent,
	})

	for i, record := range records {
		if i > 0 && r.delay > 0 {
			select {
			case <-ctx.Done():
				r.sink.Publish(domain.BatchProgress{Phase: domain.PhaseFailed, Label: "Failed"})
				return nil, ctx.Err()
			case <-time.After(r.delay):
			}
		}
		if err := ctx.Err(); err != nil {
			r.sink.Publish(domain.BatchProgress{Phase: domain.PhaseFailed, Label: "Failed"})
			return nil, err
		}

		outcome := domain.RemovalOutcome{Record: record}
		if err := r.remover.RemoveCollaborator(ctx, record.Repository.Owner, record.Repository.Name, record.Username); err != nil {
			outcome.Error = err.Error()
			summary.FailureCount++
			summary.Failures = append(summary.Failures, domain.RemovalFailure{Record: record, Error: err.Error()})
		} else {
			outcome.Success = true
			summary.SuccessCount++
		}
		summary.Outcomes = append(summary.Outcomes, outcome)

		snapshot := domain.BatchProgress{
			Phase:     domain.PhaseRunning,
			Label:     "Removing Access",
			Processed: i + 1,
			Total:     len(records),
			Percent:   removalStartPercent + (100-removalStartPercent)*float64(i+1)/float64(len(records)),
		}
		if i == len(records)-1 {
			snapshot.Phase = domain.PhaseCompleted
			snapshot.Label = "Completed"
		}
		r.sink.Publish(snapshot)
	}

	if len(records) == 0 {
		r.sink.Publish(domain.BatchProgress{
			Phase:   domain.PhaseCompleted,
			Label:   "Completed",
			Percent: 100,
		})
	}

	return summary, nil
}
