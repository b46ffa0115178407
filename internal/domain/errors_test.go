package domain_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nexopanel/tenantcore/internal/domain"
)

func TestDomainConflictError_Error(t *testing.T) {
	err := &domain.DomainConflictError{Domain: "acme.example.com"}
	want := `domain "acme.example.com" is already in use`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestDBNameConflictError_Error(t *testing.T) {
	err := &domain.DBNameConflictError{DBName: "tenant_acme"}
	want := `database name "tenant_acme" is already taken by another tenant`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestTransitionError_Error(t *testing.T) {
	err := &domain.TransitionError{
		Event:   domain.EventSuspend,
		Current: domain.StatusTrial,
	}
	want := `event "suspend" is not valid from state "trial"`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestGracePeriodExpiredError_Error(t *testing.T) {
	err := &domain.GracePeriodExpiredError{
		CanceledAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Elapsed:    31 * 24 * time.Hour,
	}
	want := fmt.Sprintf("grace period expired: canceled %s ago (limit %s)",
		(31 * 24 * time.Hour).Round(time.Second), domain.GracePeriod)
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestProvisionError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := &domain.ProvisionError{Op: "create", DBName: "tenant_acme", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	want := `provisioning create of "tenant_acme" failed: disk full`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
