package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"school-management/backend/internal/device/domain"
)

// MemoryRepository is an in-process Repository for tests.
type MemoryRepository struct {
	mu   sync.Mutex
	rows map[string]*domain.Token
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: make(map[string]*domain.Token)}
}

func (m *MemoryRepository) Upsert(_ context.Context, t *domain.Token) error {
	if err := t.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := t.AccountID + "\x00" + t.DeviceID
	now := time.Now().UTC()
	if cur, ok := m.rows[k]; ok {
		t.ID, t.CreatedAt = cur.ID, cur.CreatedAt
	} else {
		t.ID, t.CreatedAt = uuid.New().String(), now
	}
	t.LastSeenAt = now
	cp := *t
	m.rows[k] = &cp
	return nil
}

func (m *MemoryRepository) ListByAccount(_ context.Context, accountID string) ([]*domain.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Token
	for _, t := range m.rows {
		if t.AccountID == accountID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}
