package river_test

import (
	"context"
	"errors"
	"testing"
	"time"

	goriver "github.com/riverqueue/river"

	riveradapter "github.com/nexopanel/tenantcore/internal/adapter/river"
	"github.com/nexopanel/tenantcore/internal/app"
)

func TestPurgeWorker_RunsOnStart(t *testing.T) {
	client, purgeWorker, err := riveradapter.Setup(context.Background(), setupTestDB(t))
	if err != nil {
		t.Fatalf("river setup: %v", err)
	}

	purger := &stubPurger{}
	purgeWorker.SetPurger(purger)

	subscribeChan, subscribeCancel := client.Subscribe(goriver.EventKindJobCompleted)
	defer subscribeCancel()

	startClient(t, client)

	// The periodic purge job is scheduled with RunOnStart, so a sweep
	// fires without any explicit insert.
	deadline := time.After(10 * time.Second)
	for {
		select {
		case event := <-subscribeChan:
			if event.Job.Kind != "tenant.purge" {
				continue
			}
			if len(purger.dryRuns) == 0 {
				t.Fatal("purge job completed but the purger was never invoked")
			}
			if purger.dryRuns[0] {
				t.Error("scheduled purge should be a real sweep, not a dry run")
			}
			return
		case <-deadline:
			t.Fatal("timed out waiting for the startup purge sweep")
		}
	}
}

func TestPurgeWorker_DryRunArgs(t *testing.T) {
	client, purgeWorker, err := riveradapter.Setup(context.Background(), setupTestDB(t))
	if err != nil {
		t.Fatalf("river setup: %v", err)
	}

	purger := &stubPurger{}
	purgeWorker.SetPurger(purger)

	subscribeChan, subscribeCancel := client.Subscribe(goriver.EventKindJobCompleted)
	defer subscribeCancel()

	startClient(t, client)

	if _, err := client.Insert(context.Background(), riveradapter.PurgeJobArgs{DryRun: true}, nil); err != nil {
		t.Fatalf("inserting dry-run job: %v", err)
	}

	deadline := time.After(10 * time.Second)
	for {
		select {
		case <-subscribeChan:
			for _, dry := range purger.dryRuns {
				if dry {
					return
				}
			}
		case <-deadline:
			t.Fatal("timed out waiting for the dry-run sweep")
		}
	}
}

type failingPurger struct{}

func (failingPurger) DefaultPurgeCutoff() time.Time { return time.Now().UTC() }

func (failingPurger) Purge(context.Context, time.Time, bool) (app.PurgeResult, error) {
	return app.PurgeResult{}, errors.New("registry unavailable")
}

func TestPurgeWorker_PropagatesErrors(t *testing.T) {
	client, purgeWorker, err := riveradapter.Setup(context.Background(), setupTestDB(t))
	if err != nil {
		t.Fatalf("river setup: %v", err)
	}
	purgeWorker.SetPurger(failingPurger{})

	subscribeChan, subscribeCancel := client.Subscribe(goriver.EventKindJobFailed)
	defer subscribeCancel()

	startClient(t, client)

	// A failing sweep must surface as a failed job so River retries it;
	// Purge is idempotent, so the retry is safe.
	deadline := time.After(10 * time.Second)
	for {
		select {
		case event := <-subscribeChan:
			if event.Job.Kind == "tenant.purge" {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for the failed purge job")
		}
	}
}

// Keep the Purger contract aligned with the engine's method set.
var _ riveradapter.Purger = (*app.TenantService)(nil)
