package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"school-management/backend/internal/db"
	"school-management/backend/internal/otp/domain"
)

const challengeColumns = `id, account_id, email, otp_hash, otp_salt, attempts, max_attempts, expires_at, cooldown_until, used_at, created_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an OTP challenge repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// Create inserts the challenge, assigning ID and created_at when unset.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.Challenge) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := db.Executor(ctx, r.db).ExecContext(ctx,
		`INSERT INTO otp_challenges (`+challengeColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULL, $10)`,
		c.ID, c.AccountID, c.Email, c.OTPHash, c.OTPSalt, c.Attempts, c.MaxAttempts, c.ExpiresAt, c.CooldownUntil, c.CreatedAt)
	return err
}

// Latest returns the most recently created challenge for the account and email.
func (r *PostgresRepository) Latest(ctx context.Context, accountID, email string) (*domain.Challenge, error) {
	return r.latest(ctx, accountID, email, "")
}

// LatestForUpdate locks the latest challenge row. Must be called inside db.TxRunner.WithTx.
func (r *PostgresRepository) LatestForUpdate(ctx context.Context, accountID, email string) (*domain.Challenge, error) {
	return r.latest(ctx, accountID, email, " FOR UPDATE")
}

func (r *PostgresRepository) latest(ctx context.Context, accountID, email, lock string) (*domain.Challenge, error) {
	row := db.Executor(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+challengeColumns+` FROM otp_challenges
		 WHERE account_id = $1 AND email = $2
		 ORDER BY created_at DESC LIMIT 1`+lock, accountID, email)
	var c domain.Challenge
	var usedAt sql.NullTime
	err := row.Scan(&c.ID, &c.AccountID, &c.Email, &c.OTPHash, &c.OTPSalt, &c.Attempts, &c.MaxAttempts,
		&c.ExpiresAt, &c.CooldownUntil, &usedAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if usedAt.Valid {
		c.UsedAt = &usedAt.Time
	}
	return &c, nil
}

// IncrementAttempts adds one failed attempt atomically.
func (r *PostgresRepository) IncrementAttempts(ctx context.Context, id string) error {
	_, err := db.Executor(ctx, r.db).ExecContext(ctx,
		`UPDATE otp_challenges SET attempts = attempts + 1 WHERE id = $1`, id)
	return err
}

// MarkUsed consumes the challenge once.
func (r *PostgresRepository) MarkUsed(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := db.Executor(ctx, r.db).ExecContext(ctx,
		`UPDATE otp_challenges SET used_at = $2 WHERE id = $1 AND used_at IS NULL`, id, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
