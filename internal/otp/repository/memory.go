package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"school-management/backend/internal/otp/domain"
)

// MemoryRepository is an in-process Repository for tests. LatestForUpdate takes no lock.
type MemoryRepository struct {
	mu   sync.Mutex
	rows []*domain.Challenge
}

func NewMemoryRepository() *MemoryRepository { return &MemoryRepository{} }

func (m *MemoryRepository) Create(_ context.Context, c *domain.Challenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	cp := *c
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *MemoryRepository) Latest(_ context.Context, accountID, email string) (*domain.Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.rows) - 1; i >= 0; i-- {
		if c := m.rows[i]; c.AccountID == accountID && c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryRepository) LatestForUpdate(ctx context.Context, accountID, email string) (*domain.Challenge, error) {
	return m.Latest(ctx, accountID, email)
}

func (m *MemoryRepository) IncrementAttempts(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c := m.find(id); c != nil {
		c.Attempts++
	}
	return nil
}

func (m *MemoryRepository) MarkUsed(_ context.Context, id string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.find(id)
	if c == nil || c.UsedAt != nil {
		return false, nil
	}
	c.UsedAt = &at
	return true, nil
}

// Count returns the number of challenges stored for the account.
func (m *MemoryRepository) Count(accountID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.rows {
		if c.AccountID == accountID {
			n++
		}
	}
	return n
}

func (m *MemoryRepository) find(id string) *domain.Challenge {
	for _, c := range m.rows {
		if c.ID == id {
			return c
		}
	}
	return nil
}
