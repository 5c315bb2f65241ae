package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"school-management/backend/internal/tenant/domain"
)

// MemoryRepository is an in-process Repository for tests and local tooling.
type MemoryRepository struct {
	mu   sync.Mutex
	rows map[string]*domain.Tenant
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: make(map[string]*domain.Tenant)}
}

func (m *MemoryRepository) GetByID(_ context.Context, id string) (*domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	return clone(t), nil
}

func (m *MemoryRepository) GetByCode(_ context.Context, code string) (*domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	code = domain.NormalizeCode(code)
	for _, t := range m.rows {
		if t.Code == code {
			return clone(t), nil
		}
	}
	return nil, nil
}

func (m *MemoryRepository) Create(_ context.Context, t *domain.Tenant) error {
	if err := t.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	m.rows[t.ID] = clone(t)
	return nil
}

func clone(t *domain.Tenant) *domain.Tenant {
	cp := *t
	if t.Geofence != nil {
		g := *t.Geofence
		cp.Geofence = &g
	}
	return &cp
}
