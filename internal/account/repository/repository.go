package repository

import (
	"context"

	"school-management/backend/internal/account/domain"
	"school-management/backend/internal/role"
)

// Repository defines persistence for accounts. Lookups return (nil, nil) when no row matches.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByTenantAndEmail(ctx context.Context, tenantID, email string) (*domain.Account, error)
	Create(ctx context.Context, a *domain.Account) error
	// LockForUpdate holds the account row lock until the surrounding transaction ends.
	// A missing account is not an error.
	LockForUpdate(ctx context.Context, id string) error
	// UpdatePassword writes a new password hash and clears must_change_password.
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	ListActiveByTenantAndRole(ctx context.Context, tenantID string, r role.Role) ([]*domain.Account, error)
}
