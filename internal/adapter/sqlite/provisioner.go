package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nexopanel/tenantcore/internal/domain"
)

// Compile-time check: Provisioner implements domain.Provisioner.
var _ domain.Provisioner = (*Provisioner)(nil)

// Provisioner materializes isolated per-tenant databases as SQLite
// files under a data directory: one file per tenant, created and
// destroyed in lockstep with the tenant's lifecycle.
type Provisioner struct {
	dir string
}

// NewProvisioner creates a provisioner rooted at dir, creating the
// directory if needed.
func NewProvisioner(dir string) (*Provisioner, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating tenant data directory: %w", err)
	}
	return &Provisioner{dir: dir}, nil
}

func (p *Provisioner) path(dbName string) (string, error) {
	// Database names come from slugification and contain only ASCII
	// alphanumerics and underscores; anything else never reaches the
	// filesystem.
	if dbName == "" || strings.ContainsAny(dbName, "/\\.") {
		return "", fmt.Errorf("invalid database name %q", dbName)
	}
	return filepath.Join(p.dir, dbName+".db"), nil
}

// Create materializes the isolated database and returns a handle
// scoped to it. A name that already exists on disk is an error, never
// a silent overwrite.
func (p *Provisioner) Create(ctx context.Context, dbName string) (domain.TenantDatabase, error) {
	path, err := p.path(dbName)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("database %q already exists", dbName)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("checking database %q: %w", dbName, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", dbName, err)
	}

	if _, err := db.ExecContext(ctx,
		`CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ'))
		)`,
	); err != nil {
		_ = db.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("initializing database %q: %w", dbName, err)
	}

	return &TenantDB{db: db, name: dbName}, nil
}

// Open returns a handle to an already-provisioned database. Used by
// collaborators (tenant-side auth) and by verification in tests.
func (p *Provisioner) Open(ctx context.Context, dbName string) (*TenantDB, error) {
	path, err := p.path(dbName)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database %q does not exist: %w", dbName, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", dbName, err)
	}
	return &TenantDB{db: db, name: dbName}, nil
}

// Exists reports whether the named database has been provisioned.
func (p *Provisioner) Exists(dbName string) bool {
	path, err := p.path(dbName)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Drop tears down the isolated database. Dropping a name that does not
// exist is not an error, which keeps purge idempotent.
func (p *Provisioner) Drop(_ context.Context, dbName string) error {
	path, err := p.path(dbName)
	if err != nil {
		return err
	}

	// WAL sidecar files may outlive the main file; best-effort cleanup.
	_ = os.Remove(path + "-wal")
	_ = os.Remove(path + "-shm")

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("dropping database %q: %w", dbName, err)
	}
	return nil
}

// Compile-time check: TenantDB implements domain.TenantDatabase.
var _ domain.TenantDatabase = (*TenantDB)(nil)

// TenantDB is a handle scoped to exactly one isolated database. Every
// write against a tenant's storage goes through such a handle; there
// is no ambient "current database" state.
type TenantDB struct {
	db   *sql.DB
	name string
}

// Name returns the database name this handle is scoped to.
func (t *TenantDB) Name() string { return t.name }

// CreateAdminUser seeds one login-capable account. The password hash
// is stored verbatim; this store never re-hashes.
func (t *TenantDB) CreateAdminUser(ctx context.Context, u domain.AdminUser) error {
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO users (name, email, password) VALUES (?, ?, ?)`,
		u.Name, u.Email, u.PasswordHash,
	)
	if err != nil {
		return fmt.Errorf("inserting admin user: %w", err)
	}
	return nil
}

// GetAdminUser returns the account stored under email.
func (t *TenantDB) GetAdminUser(ctx context.Context, email string) (domain.AdminUser, error) {
	var u domain.AdminUser
	err := t.db.QueryRowContext(ctx,
		`SELECT name, email, password FROM users WHERE email = ?`, email,
	).Scan(&u.Name, &u.Email, &u.PasswordHash)
	if err != nil {
		return domain.AdminUser{}, fmt.Errorf("reading admin user: %w", err)
	}
	return u, nil
}

// Close closes the handle's connection to the isolated database.
func (t *TenantDB) Close() error {
	return t.db.Close()
}
