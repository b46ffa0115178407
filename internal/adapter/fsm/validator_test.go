package fsm_test

import (
	"context"
	"errors"
	"testing"

	adapter "github.com/nexopanel/tenantcore/internal/adapter/fsm"
	"github.com/nexopanel/tenantcore/internal/domain"
)

func TestValidator_AllTransitions(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	for _, tr := range domain.Transitions {
		dst, err := v.Apply(ctx, tr.Src, tr.Event)
		if err != nil {
			t.Errorf("Apply(%q, %q) unexpected error: %v", tr.Src, tr.Event, err)
			continue
		}
		if dst != tr.Dst {
			t.Errorf("Apply(%q, %q) = %q, want %q", tr.Src, tr.Event, dst, tr.Dst)
		}
	}
}

func TestValidator_InvalidTransition(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	// Can't suspend from "trial" state.
	_, err := v.Apply(ctx, domain.StatusTrial, domain.EventSuspend)
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if trErr.Event != domain.EventSuspend {
		t.Errorf("event = %q, want %q", trErr.Event, domain.EventSuspend)
	}
	if trErr.Current != domain.StatusTrial {
		t.Errorf("current = %q, want %q", trErr.Current, domain.StatusTrial)
	}
}

func TestValidator_FullLifecycle(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	steps := []struct {
		from  domain.Status
		event domain.Event
		want  domain.Status
	}{
		{domain.StatusTrial, domain.EventActivate, domain.StatusActive},
		{domain.StatusActive, domain.EventSuspend, domain.StatusSuspended},
		{domain.StatusSuspended, domain.EventActivate, domain.StatusActive},
		{domain.StatusActive, domain.EventCancel, domain.StatusCanceled},
		{domain.StatusCanceled, domain.EventRestore, domain.StatusActive},
	}

	for _, step := range steps {
		got, err := v.Apply(ctx, step.from, step.event)
		if err != nil {
			t.Fatalf("Apply(%q, %q) error: %v", step.from, step.event, err)
		}
		if got != step.want {
			t.Errorf("Apply(%q, %q) = %q, want %q", step.from, step.event, got, step.want)
		}
	}
}

func TestValidator_CancelFromAnyLiveState(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	// Cancel is valid from "trial", "active" and "suspended".
	for _, src := range []domain.Status{domain.StatusTrial, domain.StatusActive, domain.StatusSuspended} {
		got, err := v.Apply(ctx, src, domain.EventCancel)
		if err != nil {
			t.Fatalf("Apply(%q, cancel) error: %v", src, err)
		}
		if got != domain.StatusCanceled {
			t.Errorf("Apply(%q, cancel) = %q, want %q", src, got, domain.StatusCanceled)
		}
	}
}

func TestValidator_RestoreOnlyFromCanceled(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	for _, src := range []domain.Status{domain.StatusTrial, domain.StatusActive, domain.StatusSuspended} {
		_, err := v.Apply(ctx, src, domain.EventRestore)
		var trErr *domain.TransitionError
		if !errors.As(err, &trErr) {
			t.Errorf("Apply(%q, restore): expected TransitionError, got %v", src, err)
		}
	}
}
