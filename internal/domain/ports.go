package domain

import (
	"context"
	"time"
)

// TenantRepository defines the persistence contract for the tenant
// registry: the durable record store owning tenant-id, domain and
// database-name uniqueness.
type TenantRepository interface {
	// Create persists the tenant row and its domain binding as one
	// atomic unit. Uniqueness violations surface as
	// DomainConflictError or DBNameConflictError.
	Create(ctx context.Context, tenant Tenant) error
	GetByID(ctx context.Context, id string) (Tenant, error)
	GetByDomain(ctx context.Context, domain string) (Tenant, error)
	List(ctx context.Context, filter ListFilter) ([]Tenant, error)
	// UpdateStatus writes the tenant's lifecycle fields guarded by a
	// compare-and-set on the previous status. It returns
	// ErrTenantConflict when the row's status no longer matches from,
	// and ErrTenantNotFound when the row is gone.
	UpdateStatus(ctx context.Context, tenant Tenant, from Status) error
	// ListExpired returns canceled tenants whose cancellation
	// timestamp is at or before cutoff.
	ListExpired(ctx context.Context, cutoff time.Time) ([]Tenant, error)
	// DeleteExpired removes the tenant and its domain binding only if
	// the row is still canceled with canceled_at at or before cutoff,
	// re-checking eligibility inside the delete itself. It reports
	// whether a row was deleted; false means a concurrent restore or
	// purge won the race.
	DeleteExpired(ctx context.Context, id string, cutoff time.Time) (bool, error)
	// DeleteCanceled removes the tenant and its domain binding only if
	// the row is still canceled, regardless of the grace period.
	DeleteCanceled(ctx context.Context, id string) (bool, error)
	// Delete unconditionally removes the tenant and its domain
	// binding. Reserved for compensating cleanup of a failed Create;
	// lifecycle deletion goes through DeleteExpired or DeleteCanceled.
	Delete(ctx context.Context, id string) error
}

// ListFilter holds optional criteria for listing tenants.
type ListFilter struct {
	Status *Status
	Limit  int
	Offset int
}

// PlanRepository defines the persistence contract for subscription plans.
type PlanRepository interface {
	Create(ctx context.Context, plan Plan) error
	GetByID(ctx context.Context, id string) (Plan, error)
	List(ctx context.Context) ([]Plan, error)
	// Delete removes a plan, failing with ErrPlanInUse while any
	// tenant still references it.
	Delete(ctx context.Context, id string) error
}

// Provisioner is the external capability that brings a tenant's
// isolated database in and out of existence. Errors are opaque; the
// engine wraps them in ProvisionError and performs compensating
// cleanup.
type Provisioner interface {
	// Create materializes the isolated database and returns a handle
	// scoped to it. Creating a name that already exists is an error.
	Create(ctx context.Context, dbName string) (TenantDatabase, error)
	// Drop tears the isolated database down. Dropping a name that does
	// not exist is not an error, which keeps purge idempotent.
	Drop(ctx context.Context, dbName string) error
}

// TenantDatabase is a handle scoped to exactly one isolated database.
// All writes against a tenant's storage take this handle explicitly;
// there is no ambient "current database" state.
type TenantDatabase interface {
	// CreateAdminUser seeds one login-capable account. The password
	// hash is stored verbatim, never re-hashed.
	CreateAdminUser(ctx context.Context, user AdminUser) error
	Close() error
}

// PasswordHasher hashes owner credentials. Hash is invoked exactly
// once per credential at tenant creation.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(hash, plaintext string) bool
}

// TransitionValidator checks lifecycle transitions against the
// transition table and returns the destination status.
type TransitionValidator interface {
	Apply(ctx context.Context, current Status, event Event) (Status, error)
}

// EventPublisher defines the contract for emitting domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event Event, tenant Tenant) error
}
