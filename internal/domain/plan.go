package domain

import "time"

// Plan is a subscription plan referenced by tenants. Plans are simple
// records; their only lifecycle coupling is that a plan cannot be
// deleted while TenantsCount is greater than zero.
type Plan struct {
	ID           string
	Name         string
	PriceCents   int64
	DurationDays int
	TenantsCount int // derived, populated on reads
	CreatedAt    time.Time
}

// NewPlan creates a plan record.
func NewPlan(id, name string, priceCents int64, durationDays int) Plan {
	return Plan{
		ID:           id,
		Name:         name,
		PriceCents:   priceCents,
		DurationDays: durationDays,
		CreatedAt:    time.Now().UTC(),
	}
}
