package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"school-management/backend/internal/db"
	"school-management/backend/internal/session/domain"
)

const sessionColumns = `id, account_id, device_id, refresh_token_hash, is_active, ip_address, revoked_at, last_seen_at, created_at, updated_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// Get returns the session for the account and device, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) Get(ctx context.Context, accountID, deviceID string) (*domain.Session, error) {
	row := db.Executor(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE account_id = $1 AND device_id = $2`, accountID, deviceID)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// ListByAccount returns all sessions of the account, newest first.
func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.Session, error) {
	rows, err := db.Executor(ctx, r.db).QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE account_id = $1 ORDER BY updated_at DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Upsert inserts the session or reactivates the existing (account, device) row with the new hash.
func (r *PostgresRepository) Upsert(ctx context.Context, s *domain.Session) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	s.Active = true
	s.RevokedAt = nil
	return db.Executor(ctx, r.db).QueryRowContext(ctx,
		`INSERT INTO sessions (id, account_id, device_id, refresh_token_hash, is_active, ip_address, last_seen_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, TRUE, $5, $6, $6, $6)
		 ON CONFLICT (account_id, device_id) DO UPDATE
		 SET refresh_token_hash = EXCLUDED.refresh_token_hash,
		     is_active = TRUE,
		     revoked_at = NULL,
		     ip_address = EXCLUDED.ip_address,
		     last_seen_at = EXCLUDED.last_seen_at,
		     updated_at = EXCLUDED.updated_at
		 RETURNING id, created_at`,
		s.ID, s.AccountID, s.DeviceID, s.RefreshTokenHash, s.IPAddress, now,
	).Scan(&s.ID, &s.CreatedAt)
}

// RevokeOthers revokes every active session for accountID on a device other than keepDeviceID.
func (r *PostgresRepository) RevokeOthers(ctx context.Context, accountID, keepDeviceID string, at time.Time) error {
	_, err := db.Executor(ctx, r.db).ExecContext(ctx,
		`UPDATE sessions SET is_active = FALSE, revoked_at = $3, updated_at = $3
		 WHERE account_id = $1 AND device_id <> $2 AND is_active`, accountID, keepDeviceID, at)
	return err
}

// Revoke marks the (account, device) session revoked. Revoking an already revoked or missing session is a no-op.
func (r *PostgresRepository) Revoke(ctx context.Context, accountID, deviceID string, at time.Time) error {
	_, err := db.Executor(ctx, r.db).ExecContext(ctx,
		`UPDATE sessions SET is_active = FALSE, revoked_at = $3, updated_at = $3
		 WHERE account_id = $1 AND device_id = $2 AND is_active`, accountID, deviceID, at)
	return err
}

// RevokeAll revokes every active session of the account.
func (r *PostgresRepository) RevokeAll(ctx context.Context, accountID string, at time.Time) error {
	_, err := db.Executor(ctx, r.db).ExecContext(ctx,
		`UPDATE sessions SET is_active = FALSE, revoked_at = $2, updated_at = $2
		 WHERE account_id = $1 AND is_active`, accountID, at)
	return err
}

// RotateHash swaps the refresh hash with a compare-and-set on the old value.
func (r *PostgresRepository) RotateHash(ctx context.Context, accountID, deviceID, oldHash, newHash string, at time.Time) (bool, error) {
	res, err := db.Executor(ctx, r.db).ExecContext(ctx,
		`UPDATE sessions SET refresh_token_hash = $4, last_seen_at = $5, updated_at = $5
		 WHERE account_id = $1 AND device_id = $2 AND refresh_token_hash = $3 AND is_active`,
		accountID, deviceID, oldHash, newHash, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(s scanner) (*domain.Session, error) {
	var out domain.Session
	var revokedAt, lastSeenAt sql.NullTime
	err := s.Scan(&out.ID, &out.AccountID, &out.DeviceID, &out.RefreshTokenHash, &out.Active, &out.IPAddress,
		&revokedAt, &lastSeenAt, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, err
	}
	out.RevokedAt = nullTimeToPtr(revokedAt)
	out.LastSeenAt = nullTimeToPtr(lastSeenAt)
	return &out, nil
}

func nullTimeToPtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	return &n.Time
}
