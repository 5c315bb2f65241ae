package repository

import (
	"context"

	"school-management/backend/internal/alert/domain"
)

// Repository persists security alerts. Alerts are never updated by this service.
type Repository interface {
	Create(ctx context.Context, a *domain.Alert) error
	ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*domain.Alert, error)
}
