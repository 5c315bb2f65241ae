package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"school-management/backend/internal/alert/domain"
	"school-management/backend/internal/db"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an alert repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// Create inserts the alert, assigning ID, status and timestamp when unset.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Alert) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Status == "" {
		a.Status = domain.StatusOpen
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	var distance sql.NullInt64
	if a.DistanceM != nil {
		distance = sql.NullInt64{Int64: int64(*a.DistanceM), Valid: true}
	}
	_, err := db.Executor(ctx, r.db).ExecContext(ctx,
		`INSERT INTO security_alerts (id, tenant_id, account_id, alert_type, message, distance_m, latitude, longitude, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.TenantID, a.AccountID, string(a.Type), a.Message, distance, floatPtr(a.Latitude), floatPtr(a.Longitude), a.Status, a.CreatedAt)
	return err
}

// ListByTenant returns the tenant's alerts, newest first.
func (r *PostgresRepository) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*domain.Alert, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := db.Executor(ctx, r.db).QueryContext(ctx,
		`SELECT id, tenant_id, account_id, alert_type, message, distance_m, latitude, longitude, status, created_at
		 FROM security_alerts WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Alert
	for rows.Next() {
		var a domain.Alert
		var typ string
		var distance sql.NullInt64
		var lat, lng sql.NullFloat64
		if err := rows.Scan(&a.ID, &a.TenantID, &a.AccountID, &typ, &a.Message, &distance, &lat, &lng, &a.Status, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Type = domain.Type(typ)
		if distance.Valid {
			d := int(distance.Int64)
			a.DistanceM = &d
		}
		if lat.Valid {
			a.Latitude = &lat.Float64
		}
		if lng.Valid {
			a.Longitude = &lng.Float64
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func floatPtr(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
