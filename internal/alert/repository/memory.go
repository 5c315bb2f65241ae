package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"school-management/backend/internal/alert/domain"
)

// MemoryRepository is an in-process Repository for tests.
type MemoryRepository struct {
	mu     sync.Mutex
	alerts []*domain.Alert
	// Err, when set, is returned by Create.
	Err error
}

func NewMemoryRepository() *MemoryRepository { return &MemoryRepository{} }

func (m *MemoryRepository) Create(_ context.Context, a *domain.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Status == "" {
		a.Status = domain.StatusOpen
	}
	a.CreatedAt = time.Now().UTC()
	cp := *a
	m.alerts = append(m.alerts, &cp)
	return nil
}

func (m *MemoryRepository) ListByTenant(_ context.Context, tenantID string, limit, offset int) ([]*domain.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Alert
	for i := len(m.alerts) - 1; i >= 0; i-- {
		if m.alerts[i].TenantID == tenantID {
			cp := *m.alerts[i]
			out = append(out, &cp)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// All returns every stored alert in insertion order.
func (m *MemoryRepository) All() []*domain.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Alert, len(m.alerts))
	copy(out, m.alerts)
	return out
}
