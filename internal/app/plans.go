package app

import (
	"context"
	"fmt"

	"github.com/nexopanel/tenantcore/internal/domain"
)

// PlanService manages subscription plans. It is deliberately thin: the
// one piece of business logic, refusing to delete a plan that tenants
// still reference, lives in the repository's guarded delete.
type PlanService struct {
	plans domain.PlanRepository
}

// NewPlanService creates a plan service over the given repository.
func NewPlanService(plans domain.PlanRepository) *PlanService {
	return &PlanService{plans: plans}
}

// Create persists a new plan.
func (s *PlanService) Create(ctx context.Context, name string, priceCents int64, durationDays int) (domain.Plan, error) {
	plan := domain.NewPlan(generateID(), name, priceCents, durationDays)
	if err := s.plans.Create(ctx, plan); err != nil {
		return domain.Plan{}, fmt.Errorf("creating plan: %w", err)
	}
	return plan, nil
}

// GetByID returns a plan by id.
func (s *PlanService) GetByID(ctx context.Context, id string) (domain.Plan, error) {
	return s.plans.GetByID(ctx, id)
}

// List returns all plans with their tenant reference counts.
func (s *PlanService) List(ctx context.Context) ([]domain.Plan, error) {
	return s.plans.List(ctx)
}

// Delete removes a plan. It fails with domain.ErrPlanInUse while any
// tenant references the plan.
func (s *PlanService) Delete(ctx context.Context, id string) error {
	return s.plans.Delete(ctx, id)
}
