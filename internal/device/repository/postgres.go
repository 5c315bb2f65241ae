package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"school-management/backend/internal/db"
	"school-management/backend/internal/device/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a device token repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// Upsert inserts or refreshes the device's push token.
func (r *PostgresRepository) Upsert(ctx context.Context, t *domain.Token) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	t.LastSeenAt = now
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	_, err := db.Executor(ctx, r.db).ExecContext(ctx,
		`INSERT INTO device_tokens (id, account_id, device_id, push_token, platform, last_seen_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (account_id, device_id) DO UPDATE
		 SET push_token = EXCLUDED.push_token, platform = EXCLUDED.platform, last_seen_at = EXCLUDED.last_seen_at`,
		t.ID, t.AccountID, t.DeviceID, t.PushToken, t.Platform, t.LastSeenAt, t.CreatedAt)
	return err
}

// ListByAccount returns every registered device token of the account.
func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.Token, error) {
	rows, err := db.Executor(ctx, r.db).QueryContext(ctx,
		`SELECT id, account_id, device_id, push_token, platform, last_seen_at, created_at
		 FROM device_tokens WHERE account_id = $1 ORDER BY last_seen_at DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Token
	for rows.Next() {
		var t domain.Token
		if err := rows.Scan(&t.ID, &t.AccountID, &t.DeviceID, &t.PushToken, &t.Platform, &t.LastSeenAt, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}
