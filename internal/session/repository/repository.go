package repository

import (
	"context"
	"time"

	"school-management/backend/internal/session/domain"
)

// Repository defines persistence for sessions. Calls made with a context from db.TxRunner share its transaction.
type Repository interface {
	// Get returns the session for the (account, device) pair, or nil if none exists.
	Get(ctx context.Context, accountID, deviceID string) (*domain.Session, error)
	ListByAccount(ctx context.Context, accountID string) ([]*domain.Session, error)
	// Upsert makes the (account, device) row active with s.RefreshTokenHash, clearing revoked_at.
	Upsert(ctx context.Context, s *domain.Session) error
	// RevokeOthers revokes every active session of the account except the one on keepDeviceID.
	RevokeOthers(ctx context.Context, accountID, keepDeviceID string, at time.Time) error
	Revoke(ctx context.Context, accountID, deviceID string, at time.Time) error
	RevokeAll(ctx context.Context, accountID string, at time.Time) error
	// RotateHash replaces oldHash with newHash only if the row is active and still holds oldHash.
	// It reports whether a row was updated and stamps last_seen_at.
	RotateHash(ctx context.Context, accountID, deviceID, oldHash, newHash string, at time.Time) (bool, error)
}
