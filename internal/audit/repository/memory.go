package repository

import (
	"context"
	"sync"

	"school-management/backend/internal/audit/domain"
)

// MemoryRepository keeps audit logs in process. Err, when set, is returned by Create.
type MemoryRepository struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
	Err     error
}

func NewMemoryRepository() *MemoryRepository { return &MemoryRepository{} }

func (m *MemoryRepository) Create(_ context.Context, a *domain.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	cp := *a
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *MemoryRepository) ListByTenant(_ context.Context, tenantID string, limit, offset int) ([]*domain.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []*domain.AuditLog
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].TenantID == tenantID {
			cp := *m.entries[i]
			matched = append(matched, &cp)
		}
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

// Actions returns the recorded actions in insertion order.
func (m *MemoryRepository) Actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Action
	}
	return out
}
