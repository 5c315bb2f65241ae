package repository

import (
	"context"

	"school-management/backend/internal/device/domain"
)

// Repository persists push tokens per device.
type Repository interface {
	// Upsert creates the (account, device) row or replaces its push token, platform and last-seen time.
	Upsert(ctx context.Context, t *domain.Token) error
	ListByAccount(ctx context.Context, accountID string) ([]*domain.Token, error)
}
