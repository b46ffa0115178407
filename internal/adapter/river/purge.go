package river

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/riverqueue/river"

	"github.com/nexopanel/tenantcore/internal/app"
)

// PurgeJobArgs triggers a purge sweep over expired canceled tenants.
type PurgeJobArgs struct {
	DryRun bool `json:"dry_run"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (PurgeJobArgs) Kind() string { return "tenant.purge" }

// Purger is the slice of the lifecycle engine the purge worker needs.
type Purger interface {
	DefaultPurgeCutoff() time.Time
	Purge(ctx context.Context, cutoff time.Time, dryRun bool) (app.PurgeResult, error)
}

// PurgeWorker runs the engine's purge operation when the periodic
// purge job fires. The engine is attached after client construction
// via SetPurger, because the engine's event publisher needs the River
// client that in turn needs the registered workers.
type PurgeWorker struct {
	river.WorkerDefaults[PurgeJobArgs]

	mu     sync.Mutex
	purger Purger
}

// SetPurger attaches the lifecycle engine. Must be called before the
// River client starts processing jobs.
func (w *PurgeWorker) SetPurger(p Purger) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.purger = p
}

// Work runs one purge sweep. Purge is idempotent, so River's retry on
// failure is safe.
func (w *PurgeWorker) Work(ctx context.Context, job *river.Job[PurgeJobArgs]) error {
	w.mu.Lock()
	purger := w.purger
	w.mu.Unlock()

	if purger == nil {
		return errors.New("purge worker has no lifecycle engine attached")
	}

	result, err := purger.Purge(ctx, purger.DefaultPurgeCutoff(), job.Args.DryRun)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "purge sweep complete",
		"purged", result.Count,
		"tenant_ids", result.TenantIDs,
		"dry_run", job.Args.DryRun,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}
