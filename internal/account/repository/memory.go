package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"school-management/backend/internal/account/domain"
	"school-management/backend/internal/role"
)

// MemoryRepository is an in-process Repository for tests and local tooling.
type MemoryRepository struct {
	mu   sync.Mutex
	rows map[string]*domain.Account
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: make(map[string]*domain.Account)}
}

func (m *MemoryRepository) GetByID(_ context.Context, id string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *MemoryRepository) GetByTenantAndEmail(_ context.Context, tenantID, email string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = domain.NormalizeEmail(email)
	for _, a := range m.rows {
		if a.TenantID == tenantID && a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryRepository) Create(_ context.Context, a *domain.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	cp := *a
	m.rows[a.ID] = &cp
	return nil
}

// LockForUpdate is a no-op; the memory repository has no transactions.
func (m *MemoryRepository) LockForUpdate(context.Context, string) error { return nil }

func (m *MemoryRepository) UpdatePassword(_ context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.rows[id]; ok {
		a.PasswordHash = passwordHash
		a.MustChangePassword = false
		a.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (m *MemoryRepository) ListActiveByTenantAndRole(_ context.Context, tenantID string, r role.Role) ([]*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Account
	for _, a := range m.rows {
		if a.TenantID == tenantID && a.Role == r && a.Active {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}
