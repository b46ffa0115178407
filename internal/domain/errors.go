package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrTenantNotFound = errors.New("tenant not found")
	ErrPlanNotFound   = errors.New("plan not found")

	// ErrPlanInUse blocks plan deletion while any tenant references the plan.
	ErrPlanInUse = errors.New("plan is referenced by existing tenants")

	// ErrTenantConflict signals that a guarded update lost a race with
	// a concurrent lifecycle operation on the same tenant.
	ErrTenantConflict = errors.New("tenant was modified concurrently")

	// ErrEmptyDBName is returned when a tenant name slugifies to nothing.
	ErrEmptyDBName = errors.New("tenant name yields an empty database name")

	// ErrDeleteNotAllowed rejects permanent deletion of tenants that
	// are not canceled.
	ErrDeleteNotAllowed = errors.New("tenant must be canceled before permanent deletion")
)

// DomainConflictError is returned when a domain is already bound to a tenant.
type DomainConflictError struct {
	Domain string
}

func (e *DomainConflictError) Error() string {
	return fmt.Sprintf("domain %q is already in use", e.Domain)
}

// DBNameConflictError is returned when two tenant names slugify to the
// same isolated-database name. Distinct from DomainConflictError so
// callers can prompt for a different tenant name.
type DBNameConflictError struct {
	DBName string
}

func (e *DBNameConflictError) Error() string {
	return fmt.Sprintf("database name %q is already taken by another tenant", e.DBName)
}

// PasswordPolicyError is returned when an owner password fails validation.
type PasswordPolicyError struct {
	Reason string
}

func (e *PasswordPolicyError) Error() string {
	return "password rejected: " + e.Reason
}

// GracePeriodExpiredError is returned when a restore is attempted more
// than GracePeriod after cancellation. The tenant is not mutated.
type GracePeriodExpiredError struct {
	CanceledAt time.Time
	Elapsed    time.Duration
}

func (e *GracePeriodExpiredError) Error() string {
	return fmt.Sprintf("grace period expired: canceled %s ago (limit %s)",
		e.Elapsed.Round(time.Second), GracePeriod)
}

// ConfirmationError is returned when a manual delete's typed
// confirmation does not match the tenant's name exactly.
type ConfirmationError struct {
	Name string
}

func (e *ConfirmationError) Error() string {
	return fmt.Sprintf("confirmation does not match tenant name %q", e.Name)
}

// TransitionError is returned when a state transition is not allowed.
type TransitionError struct {
	Event   Event
	Current Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from state %q", e.Event, e.Current)
}

// ProvisionError wraps a failure from the database provisioner. It is
// an infrastructure error, distinct from validation errors, and always
// follows compensating cleanup of any partial state.
type ProvisionError struct {
	Op     string // "create", "seed" or "drop"
	DBName string
	Err    error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("provisioning %s of %q failed: %v", e.Op, e.DBName, e.Err)
}

func (e *ProvisionError) Unwrap() error { return e.Err }
