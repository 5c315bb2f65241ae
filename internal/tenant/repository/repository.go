package repository

import (
	"context"

	"school-management/backend/internal/tenant/domain"
)

// Repository defines read access to the tenant directory plus Create for seeding.
// Lookups return (nil, nil) when no row matches.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Tenant, error)
	GetByCode(ctx context.Context, code string) (*domain.Tenant, error)
	Create(ctx context.Context, t *domain.Tenant) error
}
