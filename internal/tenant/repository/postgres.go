package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"school-management/backend/internal/db"
	"school-management/backend/internal/tenant/domain"
)

const tenantColumns = `id, code, name, is_active, geofence_lat, geofence_lng, geofence_radius_m, created_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a tenant repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// GetByID returns the tenant for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	row := db.Executor(ctx, r.db).QueryRowContext(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)
	return scanTenant(row)
}

// GetByCode returns the tenant with the given code, or nil if not found.
func (r *PostgresRepository) GetByCode(ctx context.Context, code string) (*domain.Tenant, error) {
	row := db.Executor(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE code = $1`, domain.NormalizeCode(code))
	return scanTenant(row)
}

// Create persists the tenant; an existing code is left untouched.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.Tenant) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	var lat, lng, radius sql.NullFloat64
	if g := t.Geofence; g != nil {
		lat = sql.NullFloat64{Float64: g.Latitude, Valid: true}
		lng = sql.NullFloat64{Float64: g.Longitude, Valid: true}
		radius = sql.NullFloat64{Float64: g.RadiusM, Valid: true}
	}
	_, err := db.Executor(ctx, r.db).ExecContext(ctx,
		`INSERT INTO tenants (`+tenantColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT (code) DO NOTHING`,
		t.ID, t.Code, t.Name, t.Active, lat, lng, radius, t.CreatedAt)
	return err
}

func scanTenant(row *sql.Row) (*domain.Tenant, error) {
	var t domain.Tenant
	var lat, lng, radius sql.NullFloat64
	err := row.Scan(&t.ID, &t.Code, &t.Name, &t.Active, &lat, &lng, &radius, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	t.Geofence = domain.GeofenceFrom(nullFloat(lat), nullFloat(lng), nullFloat(radius))
	return &t, nil
}

func nullFloat(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	return &n.Float64
}
