package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/nexopanel/tenantcore/internal/domain"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

// TenantRepository implements domain.TenantRepository using SQLite.
type TenantRepository struct {
	db *sql.DB
}

// New opens a SQLite database, runs migrations, and returns a ready repository.
func New(dataSourceName string) (*TenantRepository, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys (off by default in SQLite). The domain rows
	// cascade off the tenant rows, so this must be on.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return NewFromDB(db)
}

// NewFromDB wraps an existing database connection, runs migrations, and returns a ready repository.
// Use this when the *sql.DB has been pre-configured (e.g., with otelsql instrumentation).
func NewFromDB(db *sql.DB) (*TenantRepository, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return &TenantRepository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *TenantRepository) Close() error {
	return r.db.Close()
}

// DB returns the underlying database connection for use by other adapters (e.g., river).
func (r *TenantRepository) DB() *sql.DB {
	return r.db
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

const timeFormat = "2006-01-02T15:04:05Z"

const tenantColumns = `t.id, t.name, t.owner_name, t.owner_email, t.owner_password,
	 t.plan_id, t.db_name, t.status, t.is_active, t.canceled_at, t.created_at, t.updated_at,
	 COALESCE(d.domain, '')`

// Create persists the tenant row and its domain binding in a single
// transaction. Either both rows land or neither does.
func (r *TenantRepository) Create(ctx context.Context, t domain.Tenant) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx,
		`INSERT INTO tenants (id, name, owner_name, owner_email, owner_password,
		 plan_id, db_name, status, is_active, canceled_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.OwnerName, t.OwnerEmail, t.OwnerPasswordHash,
		nullable(t.PlanID), t.DBName, string(t.Status), boolToInt(t.IsActive),
		nullableTime(t.CanceledAt),
		t.CreatedAt.Format(timeFormat),
		t.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		return mapConflict(err, t)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO domains (domain, tenant_id) VALUES (?, ?)`,
		t.Domain, t.ID,
	)
	if err != nil {
		return mapConflict(err, t)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing tenant insert: %w", err)
	}
	return nil
}

func (r *TenantRepository) GetByID(ctx context.Context, id string) (domain.Tenant, error) {
	return r.scanTenant(r.db.QueryRowContext(ctx,
		`SELECT `+tenantColumns+`
		 FROM tenants t LEFT JOIN domains d ON d.tenant_id = t.id
		 WHERE t.id = ?`, id,
	))
}

func (r *TenantRepository) GetByDomain(ctx context.Context, domainName string) (domain.Tenant, error) {
	return r.scanTenant(r.db.QueryRowContext(ctx,
		`SELECT `+tenantColumns+`
		 FROM tenants t JOIN domains d ON d.tenant_id = t.id
		 WHERE d.domain = ?`, domainName,
	))
}

func (r *TenantRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Tenant, error) {
	query := `SELECT ` + tenantColumns + `
	 FROM tenants t LEFT JOIN domains d ON d.tenant_id = t.id`
	var args []any

	if filter.Status != nil {
		query += ` WHERE t.status = ?`
		args = append(args, string(*filter.Status))
	}

	query += ` ORDER BY t.created_at DESC`

	// SQLite only accepts OFFSET after LIMIT; -1 means no limit.
	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit <= 0 {
			limit = -1
		}
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tenants: %w", err)
	}
	defer rows.Close()

	return collectTenants(rows)
}

// UpdateStatus writes the lifecycle fields guarded by a compare-and-set
// on the previous status. A concurrent transition on the same row makes
// the guard miss and surfaces as ErrTenantConflict.
func (r *TenantRepository) UpdateStatus(ctx context.Context, t domain.Tenant, from domain.Status) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tenants SET status = ?, is_active = ?, canceled_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		string(t.Status), boolToInt(t.IsActive), nullableTime(t.CanceledAt),
		time.Now().UTC().Format(timeFormat),
		t.ID, string(from),
	)
	if err != nil {
		return fmt.Errorf("updating tenant status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		var one int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM tenants WHERE id = ?`, t.ID).Scan(&one)
		if err == sql.ErrNoRows {
			return domain.ErrTenantNotFound
		}
		if err != nil {
			return fmt.Errorf("checking tenant existence: %w", err)
		}
		return domain.ErrTenantConflict
	}

	return nil
}

func (r *TenantRepository) ListExpired(ctx context.Context, cutoff time.Time) ([]domain.Tenant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tenantColumns+`
		 FROM tenants t LEFT JOIN domains d ON d.tenant_id = t.id
		 WHERE t.status = ? AND t.canceled_at IS NOT NULL AND t.canceled_at <= ?
		 ORDER BY t.canceled_at ASC`,
		string(domain.StatusCanceled), cutoff.UTC().Format(timeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("listing expired tenants: %w", err)
	}
	defer rows.Close()

	return collectTenants(rows)
}

// DeleteExpired re-checks purge eligibility inside the DELETE itself,
// so the decision and the deletion are one atomic statement. A restore
// that committed since the caller's listing makes the guard miss.
func (r *TenantRepository) DeleteExpired(ctx context.Context, id string, cutoff time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tenants
		 WHERE id = ? AND status = ? AND canceled_at IS NOT NULL AND canceled_at <= ?`,
		id, string(domain.StatusCanceled), cutoff.UTC().Format(timeFormat),
	)
	if err != nil {
		return false, fmt.Errorf("deleting expired tenant: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return rows > 0, nil
}

// DeleteCanceled removes a tenant only while it is still canceled,
// regardless of how far into the grace period it is.
func (r *TenantRepository) DeleteCanceled(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tenants WHERE id = ? AND status = ?`,
		id, string(domain.StatusCanceled),
	)
	if err != nil {
		return false, fmt.Errorf("deleting canceled tenant: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return rows > 0, nil
}

// Delete unconditionally removes a tenant row (compensating cleanup).
func (r *TenantRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tenants WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting tenant: %w", err)
	}
	return nil
}

// scanTenant scans a single row from QueryRow into a domain.Tenant.
func (r *TenantRepository) scanTenant(row *sql.Row) (domain.Tenant, error) {
	t, err := scanTenantFields(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Tenant{}, domain.ErrTenantNotFound
		}
		return domain.Tenant{}, fmt.Errorf("scanning tenant: %w", err)
	}
	return t, nil
}

func collectTenants(rows *sql.Rows) ([]domain.Tenant, error) {
	var tenants []domain.Tenant
	for rows.Next() {
		t, err := scanTenantFields(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning tenant row: %w", err)
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// scanTenantFields scans the tenantColumns projection through the given
// scan function (shared by QueryRow and Rows paths).
func scanTenantFields(scan func(...any) error) (domain.Tenant, error) {
	var t domain.Tenant
	var planID, canceledAt sql.NullString
	var status, createdAt, updatedAt string
	var isActive int

	err := scan(&t.ID, &t.Name, &t.OwnerName, &t.OwnerEmail, &t.OwnerPasswordHash,
		&planID, &t.DBName, &status, &isActive, &canceledAt, &createdAt, &updatedAt,
		&t.Domain)
	if err != nil {
		return domain.Tenant{}, err
	}

	t.PlanID = planID.String
	t.Status = domain.Status(status)
	t.IsActive = isActive == 1
	if canceledAt.Valid {
		ts, _ := time.Parse(timeFormat, canceledAt.String)
		t.CanceledAt = &ts
	}
	t.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	t.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

	return t, nil
}

// mapConflict translates SQLite unique-violation errors into the
// domain's conflict types; the failed column tells us which constraint
// tripped.
func mapConflict(err error, t domain.Tenant) error {
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return fmt.Errorf("inserting tenant: %w", err)
	}
	switch {
	case strings.Contains(msg, "domains.domain"):
		return &domain.DomainConflictError{Domain: t.Domain}
	case strings.Contains(msg, "tenants.db_name"):
		return &domain.DBNameConflictError{DBName: t.DBName}
	default:
		return fmt.Errorf("inserting tenant: %w", err)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeFormat)
}
