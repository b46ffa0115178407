package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nexopanel/tenantcore/internal/domain"
)

// Compile-time check: PlanRepository implements domain.PlanRepository.
var _ domain.PlanRepository = (*PlanRepository)(nil)

// PlanRepository implements domain.PlanRepository over the same SQLite
// database as the tenant registry. The schema is created by the tenant
// repository's migrations; construct this from TenantRepository.DB().
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository wraps an already-migrated database connection.
func NewPlanRepository(db *sql.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) Create(ctx context.Context, p domain.Plan) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO plans (id, name, price_cents, duration_days, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.PriceCents, p.DurationDays, p.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting plan: %w", err)
	}
	return nil
}

func (r *PlanRepository) GetByID(ctx context.Context, id string) (domain.Plan, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT p.id, p.name, p.price_cents, p.duration_days, p.created_at,
		 (SELECT COUNT(*) FROM tenants t WHERE t.plan_id = p.id)
		 FROM plans p WHERE p.id = ?`, id,
	)

	p, err := scanPlan(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Plan{}, domain.ErrPlanNotFound
		}
		return domain.Plan{}, fmt.Errorf("scanning plan: %w", err)
	}
	return p, nil
}

func (r *PlanRepository) List(ctx context.Context) ([]domain.Plan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.id, p.name, p.price_cents, p.duration_days, p.created_at,
		 (SELECT COUNT(*) FROM tenants t WHERE t.plan_id = p.id)
		 FROM plans p ORDER BY p.price_cents ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	defer rows.Close()

	var plans []domain.Plan
	for rows.Next() {
		p, err := scanPlan(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning plan row: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// Delete removes a plan only while no tenant references it. The guard
// lives inside the DELETE so the reference check and the deletion are
// one atomic statement.
func (r *PlanRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM plans
		 WHERE id = ? AND NOT EXISTS (SELECT 1 FROM tenants t WHERE t.plan_id = plans.id)`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting plan: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		var one int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM plans WHERE id = ?`, id).Scan(&one)
		if err == sql.ErrNoRows {
			return domain.ErrPlanNotFound
		}
		if err != nil {
			return fmt.Errorf("checking plan existence: %w", err)
		}
		return domain.ErrPlanInUse
	}

	return nil
}

func scanPlan(scan func(...any) error) (domain.Plan, error) {
	var p domain.Plan
	var createdAt string

	if err := scan(&p.ID, &p.Name, &p.PriceCents, &p.DurationDays, &createdAt, &p.TenantsCount); err != nil {
		return domain.Plan{}, err
	}

	p.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	return p, nil
}
