package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"school-management/backend/internal/account/domain"
	"school-management/backend/internal/db"
	"school-management/backend/internal/role"
)

const accountColumns = `id, tenant_id, email, name, role, password_hash, is_active, must_change_password, created_at, updated_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an account repository that uses the given db for persistence.
// Calls made with a context from db.TxRunner run inside that transaction.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// GetByID returns the account for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := db.Executor(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

// GetByTenantAndEmail returns the account with the given email in the tenant, or nil if not found.
func (r *PostgresRepository) GetByTenantAndEmail(ctx context.Context, tenantID, email string) (*domain.Account, error) {
	row := db.Executor(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE tenant_id = $1 AND email = $2`,
		tenantID, domain.NormalizeEmail(email))
	return scanAccount(row)
}

// Create persists the account. The account must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	_, err := db.Executor(ctx, r.db).ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (tenant_id, email) DO NOTHING`,
		a.ID, a.TenantID, a.Email, a.Name, string(a.Role), a.PasswordHash, a.Active, a.MustChangePassword, a.CreatedAt, a.UpdatedAt)
	return err
}

// LockForUpdate locks the account row. Must be called inside db.TxRunner.WithTx.
func (r *PostgresRepository) LockForUpdate(ctx context.Context, id string) error {
	var locked string
	err := db.Executor(ctx, r.db).QueryRowContext(ctx,
		`SELECT id FROM accounts WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}

// UpdatePassword writes the new hash and clears the must-change flag.
func (r *PostgresRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	_, err := db.Executor(ctx, r.db).ExecContext(ctx,
		`UPDATE accounts SET password_hash = $2, must_change_password = FALSE, updated_at = $3 WHERE id = $1`,
		id, passwordHash, time.Now().UTC())
	return err
}

// ListActiveByTenantAndRole returns every active account of role r in the tenant.
func (r *PostgresRepository) ListActiveByTenantAndRole(ctx context.Context, tenantID string, rl role.Role) ([]*domain.Account, error) {
	rows, err := db.Executor(ctx, r.db).QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE tenant_id = $1 AND role = $2 AND is_active ORDER BY created_at`,
		tenantID, string(rl))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (*domain.Account, error) {
	var a domain.Account
	var r string
	err := s.Scan(&a.ID, &a.TenantID, &a.Email, &a.Name, &r, &a.PasswordHash, &a.Active, &a.MustChangePassword, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	a.Role = role.Role(r)
	return &a, nil
}
