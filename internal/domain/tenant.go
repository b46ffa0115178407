package domain

import "time"

// Status represents the lifecycle state of a tenant.
type Status string

const (
	StatusTrial     Status = "trial"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusCanceled  Status = "canceled"
)

// Valid reports whether s is a member of the closed status enumeration.
func (s Status) Valid() bool {
	switch s {
	case StatusTrial, StatusActive, StatusSuspended, StatusCanceled:
		return true
	}
	return false
}

// Event represents an action that triggers a state transition or is
// published to the event queue. EventCreate and EventPurge are
// published only; they have no entry in the transition table because
// they bring tenants into and out of existence rather than moving
// them between states.
type Event string

const (
	EventCreate   Event = "create"
	EventActivate Event = "activate"
	EventSuspend  Event = "suspend"
	EventCancel   Event = "cancel"
	EventRestore  Event = "restore"
	EventPurge    Event = "purge"
)

// Transition defines a valid state change: an event moves a tenant from Src to Dst.
type Transition struct {
	Event Event
	Src   Status
	Dst   Status
}

// Transitions defines all valid state changes in the tenant lifecycle.
// This is domain knowledge consumed by the FSM adapter.
var Transitions = []Transition{
	{Event: EventActivate, Src: StatusTrial, Dst: StatusActive},
	{Event: EventActivate, Src: StatusSuspended, Dst: StatusActive},
	{Event: EventSuspend, Src: StatusActive, Dst: StatusSuspended},
	{Event: EventCancel, Src: StatusTrial, Dst: StatusCanceled},
	{Event: EventCancel, Src: StatusActive, Dst: StatusCanceled},
	{Event: EventCancel, Src: StatusSuspended, Dst: StatusCanceled},
	{Event: EventRestore, Src: StatusCanceled, Dst: StatusActive},
}

// GracePeriod is the window after cancellation during which a tenant
// may still be restored before it becomes eligible for purging.
const GracePeriod = 30 * 24 * time.Hour

// GracePeriodDays is GracePeriod expressed in whole days, used for the
// derived day-count values exposed to callers.
const GracePeriodDays = 30

// Tenant is the core domain entity: one customer organization with an
// isolated database and a dedicated domain.
//
// Invariants: CanceledAt is non-nil if and only if Status is canceled,
// and IsActive is false whenever Status is canceled. MarkCanceled and
// MarkRestored are the only sanctioned ways to move in and out of the
// canceled state.
type Tenant struct {
	ID                string
	Name              string
	OwnerName         string
	OwnerEmail        string
	OwnerPasswordHash string
	PlanID            string // empty when the tenant has no plan
	DBName            string // immutable after creation
	Domain            string
	Status            Status
	IsActive          bool
	CanceledAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AdminUser is the single login-capable account seeded into a tenant's
// isolated database at creation time. It never appears in the central
// registry.
type AdminUser struct {
	Name         string
	Email        string
	PasswordHash string
}

// NewTenant creates a tenant in the initial "trial" state.
func NewTenant(id, name, domainName, dbName string) Tenant {
	now := time.Now().UTC()
	return Tenant{
		ID:        id,
		Name:      name,
		Domain:    domainName,
		DBName:    dbName,
		Status:    StatusTrial,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkCanceled moves the tenant into the canceled state as of now,
// starting (or restarting) the grace period.
func (t *Tenant) MarkCanceled(now time.Time) {
	ts := now.UTC()
	t.Status = StatusCanceled
	t.IsActive = false
	t.CanceledAt = &ts
}

// MarkRestored moves a canceled tenant back to active and clears the
// cancellation timestamp.
func (t *Tenant) MarkRestored() {
	t.Status = StatusActive
	t.IsActive = true
	t.CanceledAt = nil
}

// GraceDaysRemaining returns the whole days left in the grace period,
// clamped at zero. It is only meaningful for canceled tenants and
// returns zero for every other status.
func (t Tenant) GraceDaysRemaining(now time.Time) int {
	if t.Status != StatusCanceled || t.CanceledAt == nil {
		return 0
	}
	elapsedDays := int(now.Sub(*t.CanceledAt) / (24 * time.Hour))
	remaining := GracePeriodDays - elapsedDays
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CanRestore reports whether the tenant is canceled with grace period
// remaining. The boundary is inclusive: a tenant canceled exactly
// GracePeriod ago can still be restored.
func (t Tenant) CanRestore(now time.Time) bool {
	if t.Status != StatusCanceled || t.CanceledAt == nil {
		return false
	}
	return now.Sub(*t.CanceledAt) <= GracePeriod
}

// CanDelete reports whether a human-triggered permanent delete is
// permitted. Only canceled tenants may be deleted outside the purge path.
func (t Tenant) CanDelete() bool {
	return t.Status == StatusCanceled
}
