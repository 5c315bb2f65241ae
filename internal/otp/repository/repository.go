package repository

import (
	"context"
	"time"

	"school-management/backend/internal/otp/domain"
)

// Repository persists OTP challenges. Latest lookups return (nil, nil) when the account has none.
type Repository interface {
	Create(ctx context.Context, c *domain.Challenge) error
	Latest(ctx context.Context, accountID, email string) (*domain.Challenge, error)
	// LatestForUpdate is Latest with a row lock held until the surrounding transaction ends.
	LatestForUpdate(ctx context.Context, accountID, email string) (*domain.Challenge, error)
	IncrementAttempts(ctx context.Context, id string) error
	// MarkUsed sets used_at if it is still null and reports whether it did.
	MarkUsed(ctx context.Context, id string, at time.Time) (bool, error)
}
