package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nexopanel/tenantcore/internal/domain"
)

// minPasswordLength is the floor enforced on owner passwords.
const minPasswordLength = 8

// CreateParams carries everything needed to provision a tenant.
type CreateParams struct {
	TenantName    string
	Domain        string
	OwnerName     string
	OwnerEmail    string
	OwnerPassword string
	PlanID        string        // optional
	InitialStatus domain.Status // optional, defaults to trial
}

// PurgeResult reports the tenants affected by a purge run (or that
// would be affected, in dry-run mode).
type PurgeResult struct {
	Count     int
	TenantIDs []string
	DryRun    bool
}

// TenantService is the lifecycle engine. It validates state
// transitions and orchestrates the side effects of tenant creation,
// cancellation, restoration and permanent deletion.
type TenantService struct {
	repo        domain.TenantRepository
	provisioner domain.Provisioner
	hasher      domain.PasswordHasher
	validator   domain.TransitionValidator
	publisher   domain.EventPublisher
	now         func() time.Time
}

// Option configures a TenantService.
type Option func(*TenantService)

// WithClock overrides the time source. Used by tests to simulate the
// passage of the grace period.
func WithClock(now func() time.Time) Option {
	return func(s *TenantService) { s.now = now }
}

// NewTenantService creates a service with the given adapters.
func NewTenantService(
	repo domain.TenantRepository,
	provisioner domain.Provisioner,
	hasher domain.PasswordHasher,
	validator domain.TransitionValidator,
	publisher domain.EventPublisher,
	opts ...Option,
) *TenantService {
	s := &TenantService{
		repo:        repo,
		provisioner: provisioner,
		hasher:      hasher,
		validator:   validator,
		publisher:   publisher,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create provisions a new tenant: registry rows, isolated database and
// the seeded admin account. Any failure after the registry write
// triggers compensating cleanup so no partial state survives.
func (s *TenantService) Create(ctx context.Context, p CreateParams) (domain.Tenant, error) {
	if err := validatePassword(p.OwnerPassword); err != nil {
		return domain.Tenant{}, err
	}

	status := p.InitialStatus
	if status == "" {
		status = domain.StatusTrial
	}
	if !status.Valid() || status == domain.StatusCanceled {
		return domain.Tenant{}, fmt.Errorf("invalid initial status %q", p.InitialStatus)
	}

	// Domain uniqueness pre-check; the registry's unique constraint is
	// the backstop against races.
	if _, err := s.repo.GetByDomain(ctx, p.Domain); err == nil {
		return domain.Tenant{}, &domain.DomainConflictError{Domain: p.Domain}
	}

	dbName, err := domain.DBNameFromTenantName(p.TenantName)
	if err != nil {
		return domain.Tenant{}, err
	}

	// The one and only hash of the owner credential. The same value is
	// stored in the registry and seeded into the tenant database.
	hash, err := s.hasher.Hash(p.OwnerPassword)
	if err != nil {
		return domain.Tenant{}, fmt.Errorf("hashing owner password: %w", err)
	}

	tenant := domain.NewTenant(generateID(), p.TenantName, p.Domain, dbName)
	tenant.OwnerName = p.OwnerName
	tenant.OwnerEmail = p.OwnerEmail
	tenant.OwnerPasswordHash = hash
	tenant.PlanID = p.PlanID
	tenant.Status = status

	if err := s.repo.Create(ctx, tenant); err != nil {
		return domain.Tenant{}, err
	}

	tdb, err := s.provisioner.Create(ctx, tenant.DBName)
	if err != nil {
		s.compensate(ctx, tenant)
		return domain.Tenant{}, &domain.ProvisionError{Op: "create", DBName: tenant.DBName, Err: err}
	}

	admin := domain.AdminUser{
		Name:         p.OwnerName,
		Email:        p.OwnerEmail,
		PasswordHash: hash,
	}
	if err := tdb.CreateAdminUser(ctx, admin); err != nil {
		_ = tdb.Close()
		s.compensate(ctx, tenant)
		return domain.Tenant{}, &domain.ProvisionError{Op: "seed", DBName: tenant.DBName, Err: err}
	}
	_ = tdb.Close()

	if err := s.publisher.Publish(ctx, domain.EventCreate, tenant); err != nil {
		return domain.Tenant{}, fmt.Errorf("publishing create event: %w", err)
	}

	return tenant, nil
}

// compensate undoes the partial state of a failed Create. Cleanup
// failures are logged, not returned: the original provisioning error
// is what the caller needs to see.
func (s *TenantService) compensate(ctx context.Context, t domain.Tenant) {
	if err := s.provisioner.Drop(ctx, t.DBName); err != nil {
		slog.ErrorContext(ctx, "compensating database drop failed",
			"tenant_id", t.ID, "db_name", t.DBName, "error", err)
	}
	if err := s.repo.Delete(ctx, t.ID); err != nil {
		slog.ErrorContext(ctx, "compensating registry delete failed",
			"tenant_id", t.ID, "error", err)
	}
}

// GetByID returns a tenant by its unique identifier.
func (s *TenantService) GetByID(ctx context.Context, id string) (domain.Tenant, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns tenants matching the given filter.
func (s *TenantService) List(ctx context.Context, filter domain.ListFilter) ([]domain.Tenant, error) {
	return s.repo.List(ctx, filter)
}

// Now returns the service's current time. Exposed so callers rendering
// derived values (grace days remaining, restorability) share the
// engine's clock.
func (s *TenantService) Now() time.Time {
	return s.now()
}

// Cancel moves a tenant into the canceled state and starts the 30-day
// grace period. Canceling an already-canceled tenant refreshes the
// cancellation timestamp, restarting the grace period.
func (s *TenantService) Cancel(ctx context.Context, id string) (domain.Tenant, error) {
	tenant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Tenant{}, err
	}

	from := tenant.Status
	if from != domain.StatusCanceled {
		if _, err := s.validator.Apply(ctx, from, domain.EventCancel); err != nil {
			return domain.Tenant{}, err
		}
	}

	tenant.MarkCanceled(s.now())

	if err := s.repo.UpdateStatus(ctx, tenant, from); err != nil {
		return domain.Tenant{}, err
	}

	if err := s.publisher.Publish(ctx, domain.EventCancel, tenant); err != nil {
		return domain.Tenant{}, fmt.Errorf("publishing cancel event: %w", err)
	}

	return tenant, nil
}

// Restore brings a canceled tenant back to active, provided the grace
// period has not expired. Restoring a tenant that is not canceled is a
// no-op returning the tenant unchanged.
func (s *TenantService) Restore(ctx context.Context, id string) (domain.Tenant, error) {
	tenant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Tenant{}, err
	}

	if tenant.Status != domain.StatusCanceled {
		return tenant, nil
	}

	if tenant.CanceledAt != nil {
		elapsed := s.now().Sub(*tenant.CanceledAt)
		if elapsed > domain.GracePeriod {
			return domain.Tenant{}, &domain.GracePeriodExpiredError{
				CanceledAt: *tenant.CanceledAt,
				Elapsed:    elapsed,
			}
		}
	}

	if _, err := s.validator.Apply(ctx, tenant.Status, domain.EventRestore); err != nil {
		return domain.Tenant{}, err
	}

	tenant.MarkRestored()

	if err := s.repo.UpdateStatus(ctx, tenant, domain.StatusCanceled); err != nil {
		return domain.Tenant{}, err
	}

	if err := s.publisher.Publish(ctx, domain.EventRestore, tenant); err != nil {
		return domain.Tenant{}, fmt.Errorf("publishing restore event: %w", err)
	}

	return tenant, nil
}

// Suspend moves an active tenant into the suspended state.
func (s *TenantService) Suspend(ctx context.Context, id string) (domain.Tenant, error) {
	return s.transition(ctx, id, domain.EventSuspend)
}

// Activate moves a trial or suspended tenant into the active state.
func (s *TenantService) Activate(ctx context.Context, id string) (domain.Tenant, error) {
	return s.transition(ctx, id, domain.EventActivate)
}

// transition applies an FSM-validated lifecycle event to a tenant.
func (s *TenantService) transition(ctx context.Context, id string, event domain.Event) (domain.Tenant, error) {
	tenant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Tenant{}, err
	}

	from := tenant.Status
	dst, err := s.validator.Apply(ctx, from, event)
	if err != nil {
		return domain.Tenant{}, err
	}

	tenant.Status = dst
	tenant.IsActive = dst == domain.StatusActive || dst == domain.StatusTrial

	if err := s.repo.UpdateStatus(ctx, tenant, from); err != nil {
		return domain.Tenant{}, err
	}

	if err := s.publisher.Publish(ctx, event, tenant); err != nil {
		return domain.Tenant{}, fmt.Errorf("publishing event %q: %w", event, err)
	}

	return tenant, nil
}

// DefaultPurgeCutoff is now minus the grace period: the newest
// cancellation timestamp eligible for purging.
func (s *TenantService) DefaultPurgeCutoff() time.Time {
	return s.now().Add(-domain.GracePeriod)
}

// Purge permanently destroys every canceled tenant whose cancellation
// timestamp is at or before cutoff: registry row, domain binding and
// isolated database. In dry-run mode it only reports what would be
// purged. The operation is idempotent; the guarded registry delete is
// the atomic eligibility decision, so a restore that commits first is
// never undone.
func (s *TenantService) Purge(ctx context.Context, cutoff time.Time, dryRun bool) (PurgeResult, error) {
	expired, err := s.repo.ListExpired(ctx, cutoff)
	if err != nil {
		return PurgeResult{}, fmt.Errorf("listing expired tenants: %w", err)
	}

	result := PurgeResult{DryRun: dryRun}

	if dryRun {
		for _, t := range expired {
			result.TenantIDs = append(result.TenantIDs, t.ID)
		}
		result.Count = len(result.TenantIDs)
		return result, nil
	}

	var errs []error
	for _, t := range expired {
		deleted, err := s.repo.DeleteExpired(ctx, t.ID, cutoff)
		if err != nil {
			errs = append(errs, fmt.Errorf("deleting tenant %s: %w", t.ID, err))
			continue
		}
		if !deleted {
			// Restored or already purged since the listing.
			continue
		}

		if err := s.provisioner.Drop(ctx, t.DBName); err != nil {
			errs = append(errs, &domain.ProvisionError{Op: "drop", DBName: t.DBName, Err: err})
		}

		result.TenantIDs = append(result.TenantIDs, t.ID)

		if err := s.publisher.Publish(ctx, domain.EventPurge, t); err != nil {
			errs = append(errs, fmt.Errorf("publishing purge event for %s: %w", t.ID, err))
		}
	}

	result.Count = len(result.TenantIDs)
	return result, errors.Join(errs...)
}

// ManualDelete permanently destroys a single canceled tenant
// immediately, bypassing the grace period. The caller must type the
// tenant's exact name as confirmation.
func (s *TenantService) ManualDelete(ctx context.Context, id, confirmationName string) error {
	tenant, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !tenant.CanDelete() {
		return domain.ErrDeleteNotAllowed
	}
	if confirmationName != tenant.Name {
		return &domain.ConfirmationError{Name: tenant.Name}
	}

	deleted, err := s.repo.DeleteCanceled(ctx, tenant.ID)
	if err != nil {
		return fmt.Errorf("deleting tenant %s: %w", tenant.ID, err)
	}
	if !deleted {
		return domain.ErrTenantConflict
	}

	if err := s.provisioner.Drop(ctx, tenant.DBName); err != nil {
		return &domain.ProvisionError{Op: "drop", DBName: tenant.DBName, Err: err}
	}

	if err := s.publisher.Publish(ctx, domain.EventPurge, tenant); err != nil {
		return fmt.Errorf("publishing purge event: %w", err)
	}

	return nil
}

// validatePassword enforces the owner-password policy.
func validatePassword(pw string) error {
	if len(pw) < minPasswordLength {
		return &domain.PasswordPolicyError{
			Reason: fmt.Sprintf("must be at least %d characters", minPasswordLength),
		}
	}
	return nil
}
