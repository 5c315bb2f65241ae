package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"school-management/backend/internal/session/domain"
)

// MemoryRepository is an in-process Repository for tests and local tooling.
type MemoryRepository struct {
	mu   sync.Mutex
	rows map[string]*domain.Session
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: make(map[string]*domain.Session)}
}

func memKey(accountID, deviceID string) string { return accountID + "\x00" + deviceID }

func (m *MemoryRepository) Get(_ context.Context, accountID, deviceID string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[memKey(accountID, deviceID)]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryRepository) ListByAccount(_ context.Context, accountID string) ([]*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Session
	for _, s := range m.rows {
		if s.AccountID == accountID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeviceID < out[j].DeviceID })
	return out, nil
}

func (m *MemoryRepository) Upsert(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	k := memKey(s.AccountID, s.DeviceID)
	if cur, ok := m.rows[k]; ok {
		s.ID = cur.ID
		s.CreatedAt = cur.CreatedAt
	} else {
		if s.ID == "" {
			s.ID = uuid.New().String()
		}
		s.CreatedAt = now
	}
	s.Active = true
	s.RevokedAt = nil
	s.UpdatedAt = now
	s.LastSeenAt = &now
	cp := *s
	m.rows[k] = &cp
	return nil
}

func (m *MemoryRepository) RevokeOthers(_ context.Context, accountID, keepDeviceID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.rows {
		if s.AccountID == accountID && s.DeviceID != keepDeviceID && s.Active {
			revoke(s, at)
		}
	}
	return nil
}

func (m *MemoryRepository) Revoke(_ context.Context, accountID, deviceID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.rows[memKey(accountID, deviceID)]; ok && s.Active {
		revoke(s, at)
	}
	return nil
}

func (m *MemoryRepository) RevokeAll(_ context.Context, accountID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.rows {
		if s.AccountID == accountID && s.Active {
			revoke(s, at)
		}
	}
	return nil
}

func (m *MemoryRepository) RotateHash(_ context.Context, accountID, deviceID, oldHash, newHash string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[memKey(accountID, deviceID)]
	if !ok || !s.Active || s.RefreshTokenHash != oldHash {
		return false, nil
	}
	s.RefreshTokenHash = newHash
	s.LastSeenAt = &at
	s.UpdatedAt = at
	return true, nil
}

// ActiveCount returns the number of active sessions of the account.
func (m *MemoryRepository) ActiveCount(accountID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.rows {
		if s.AccountID == accountID && s.Active {
			n++
		}
	}
	return n
}

func revoke(s *domain.Session, at time.Time) {
	s.Active = false
	s.RevokedAt = &at
	s.UpdatedAt = at
}
