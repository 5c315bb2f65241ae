package repository

import (
	"context"

	"school-management/backend/internal/audit/domain"
)

// Repository defines persistence for audit logs. Entries are append-only.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
	ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*domain.AuditLog, error)
}
