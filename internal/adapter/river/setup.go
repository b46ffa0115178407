package river

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riversqlite"
	"github.com/riverqueue/river/rivermigrate"
)

// purgeInterval is how often the periodic purge job fires. Daily
// cadence is plenty: grace periods are measured in days.
const purgeInterval = 24 * time.Hour

// Setup creates a River client with the event and purge workers
// registered, schedules the daily purge job, and runs River's internal
// migrations. The caller must attach the lifecycle engine via
// PurgeWorker.SetPurger and then call client.Start() to begin
// processing jobs and client.Stop() for graceful shutdown.
func Setup(ctx context.Context, db *sql.DB) (*Client, *PurgeWorker, error) {
	driver := riversqlite.New(db)

	// Run River's own migrations (creates river_job, river_leader, etc.).
	// These are separate from the app's goose migrations.
	migrator, err := rivermigrate.New(driver, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("creating river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return nil, nil, fmt.Errorf("running river migrations: %w", err)
	}

	purgeWorker := &PurgeWorker{}

	workers := river.NewWorkers()
	river.AddWorker(workers, &EventWorker{})
	river.AddWorker(workers, purgeWorker)

	client, err := river.NewClient(driver, &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 2},
		},
		Workers: workers,
		PeriodicJobs: []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(purgeInterval),
				func() (river.JobArgs, *river.InsertOpts) {
					return PurgeJobArgs{}, nil
				},
				&river.PeriodicJobOpts{RunOnStart: true},
			),
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating river client: %w", err)
	}

	return client, purgeWorker, nil
}
