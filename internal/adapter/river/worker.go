package river

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"
)

// ChangeWorker processes roster change jobs from the River queue.
// It logs each change; notification fan-out hangs off this worker.
type ChangeWorker struct {
	river.WorkerDefaults[ChangeJobArgs]

	Logger *slog.Logger
}

// Work processes a single change job.
func (w *ChangeWorker) Work(ctx context.Context, job *river.Job[ChangeJobArgs]) error {
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []any{
		"event", job.Args.Event,
		"entity_id", job.Args.EntityID,
		"entity_type", job.Args.EntityType,
		"effective_date", job.Args.EffectiveDate,
		"job_id", job.ID,
		"attempt", job.Attempt,
	}
	if job.Args.RelatedID != "" {
		attrs = append(attrs, "related_id", job.Args.RelatedID)
	}

	logger.InfoContext(ctx, "processing roster change", attrs...)
	return nil
}
