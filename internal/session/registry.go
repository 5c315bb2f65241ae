// Package session is the registry of device-bound sessions. Every authenticated request goes through
// Authorize, so revoking a session cuts off its access tokens on the next request.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"school-management/backend/internal/db"
	"school-management/backend/internal/role"
	"school-management/backend/internal/security"
	"school-management/backend/internal/session/domain"
	"school-management/backend/internal/session/repository"
)

var (
	// ErrDeviceBindingMissing is returned when a device-bound role presents a token without a device id.
	ErrDeviceBindingMissing = errors.New("device binding missing")
	// ErrSessionRevoked is returned when no active session exists for the claimed device.
	ErrSessionRevoked = errors.New("session revoked")
	// ErrRefreshTokenMismatch is returned when a refresh token does not match the stored hash,
	// which is what happens when an already rotated token is replayed.
	ErrRefreshTokenMismatch = errors.New("refresh token does not match session")
)

// Registry owns the session lifecycle: create-or-rotate on login, rotate on refresh, revoke on logout or reset.
type Registry struct {
	repo repository.Repository
	tx   db.TxRunner
	now  func() time.Time
}

// NewRegistry returns a Registry over repo. Multi-row changes run inside tx.
func NewRegistry(repo repository.Repository, tx db.TxRunner) *Registry {
	return &Registry{repo: repo, tx: tx, now: func() time.Time { return time.Now().UTC() }}
}

// CreateOrRotate makes (accountID, deviceID) the active session holding refreshHash. For single-device
// roles every other active session of the account is revoked first; both writes share one transaction.
func (r *Registry) CreateOrRotate(ctx context.Context, accountID, deviceID, refreshHash string, policy role.Policy, ip string) error {
	if deviceID == "" {
		return ErrDeviceBindingMissing
	}
	return r.tx.WithTx(ctx, func(ctx context.Context) error {
		if policy.SingleDevice {
			if err := r.repo.RevokeOthers(ctx, accountID, deviceID, r.now()); err != nil {
				return fmt.Errorf("revoke other sessions: %w", err)
			}
		}
		s := &domain.Session{
			AccountID:        accountID,
			DeviceID:         deviceID,
			RefreshTokenHash: refreshHash,
			IPAddress:        ip,
		}
		if err := r.repo.Upsert(ctx, s); err != nil {
			return fmt.Errorf("upsert session: %w", err)
		}
		return nil
	})
}

// Validate reports whether an active session exists for the account on deviceID.
func (r *Registry) Validate(ctx context.Context, accountID, deviceID string) (bool, error) {
	s, err := r.repo.Get(ctx, accountID, deviceID)
	if err != nil {
		return false, err
	}
	return s != nil && s.Active, nil
}

// Authorize applies the device-binding rule of policy to a verified token's account and device.
// Roles that are not device-bound always pass.
func (r *Registry) Authorize(ctx context.Context, accountID, deviceID string, policy role.Policy) error {
	if !policy.DeviceBound {
		return nil
	}
	if deviceID == "" {
		return ErrDeviceBindingMissing
	}
	ok, err := r.Validate(ctx, accountID, deviceID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSessionRevoked
	}
	return nil
}

// Rotate replaces the stored hash of presentedToken with newHash. The swap is a compare-and-set on the
// old hash, so of two concurrent refreshes with the same token at most one succeeds.
func (r *Registry) Rotate(ctx context.Context, accountID, deviceID, presentedToken, newHash string) error {
	s, err := r.repo.Get(ctx, accountID, deviceID)
	if err != nil {
		return err
	}
	if s == nil || !s.Active {
		return ErrSessionRevoked
	}
	if !security.RefreshTokenHashEqual(presentedToken, s.RefreshTokenHash) {
		return ErrRefreshTokenMismatch
	}
	ok, err := r.repo.RotateHash(ctx, accountID, deviceID, s.RefreshTokenHash, newHash, r.now())
	if err != nil {
		return fmt.Errorf("rotate refresh hash: %w", err)
	}
	if !ok {
		return ErrRefreshTokenMismatch
	}
	return nil
}

// Revoke ends the session on deviceID. Idempotent.
func (r *Registry) Revoke(ctx context.Context, accountID, deviceID string) error {
	return r.repo.Revoke(ctx, accountID, deviceID, r.now())
}

// RevokeAll ends every session of the account. Idempotent.
func (r *Registry) RevokeAll(ctx context.Context, accountID string) error {
	return r.repo.RevokeAll(ctx, accountID, r.now())
}

// List returns the account's sessions, active and revoked.
func (r *Registry) List(ctx context.Context, accountID string) ([]*domain.Session, error) {
	return r.repo.ListByAccount(ctx, accountID)
}
