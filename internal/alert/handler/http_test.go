package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"school-management/backend/internal/alert/domain"
	"school-management/backend/internal/alert/repository"
	"school-management/backend/internal/role"
	"school-management/backend/internal/server/interceptors"
)

type listBody struct {
	Alerts []alertResp `json:"alerts"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

func newApp(repo repository.Repository, tenantID string) *fiber.App {
	app := fiber.New()
	app.Get("/security-alerts", func(c *fiber.Ctx) error {
		if tenantID != "" {
			c.SetUserContext(interceptors.WithIdentity(c.UserContext(), interceptors.Identity{
				AccountID: "admin-1", TenantID: tenantID, Role: role.SchoolAdmin,
			}))
		}
		return c.Next()
	}, ListHandler(repo))
	return app
}

func get(t *testing.T, app *fiber.App, path string) (int, listBody) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	var body listBody
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body
}

func TestListHandler_TenantScopedNewestFirst(t *testing.T) {
	repo := repository.NewMemoryRepository()
	ctx := context.Background()
	dist := 950
	for _, a := range []*domain.Alert{
		{TenantID: "t1", AccountID: "teacher-1", Type: domain.TypeGeoLocationMissing, Message: "first"},
		{TenantID: "t2", AccountID: "teacher-9", Type: domain.TypeOutsideGeofence, Message: "other school"},
		{TenantID: "t1", AccountID: "teacher-2", Type: domain.TypeOutsideGeofence, Message: "second", DistanceM: &dist},
	} {
		if err := repo.Create(ctx, a); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	status, body := get(t, newApp(repo, "t1"), "/security-alerts")
	if status != fiber.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if len(body.Alerts) != 2 {
		t.Fatalf("alerts = %+v, want 2 for t1", body.Alerts)
	}
	if body.Alerts[0].Message != "second" || body.Alerts[0].DistanceM == nil || *body.Alerts[0].DistanceM != 950 {
		t.Errorf("newest alert = %+v", body.Alerts[0])
	}
	if body.Alerts[1].DistanceM != nil || body.Alerts[1].Type != "geo_location_missing" || body.Alerts[1].Status != domain.StatusOpen {
		t.Errorf("oldest alert = %+v", body.Alerts[1])
	}
	if body.Limit != 50 || body.Offset != 0 {
		t.Errorf("paging = %d/%d, want 50/0", body.Limit, body.Offset)
	}
}

func TestListHandler_Paging(t *testing.T) {
	repo := repository.NewMemoryRepository()
	for i := 0; i < 3; i++ {
		_ = repo.Create(context.Background(), &domain.Alert{TenantID: "t1", Type: domain.TypeOutsideGeofence})
	}
	app := newApp(repo, "t1")

	_, body := get(t, app, "/security-alerts?limit=2&offset=2")
	if len(body.Alerts) != 1 || body.Limit != 2 || body.Offset != 2 {
		t.Errorf("page = %d alerts limit %d offset %d", len(body.Alerts), body.Limit, body.Offset)
	}
	_, body = get(t, app, "/security-alerts?limit=1000&offset=-4")
	if body.Limit != 50 || body.Offset != 0 || len(body.Alerts) != 3 {
		t.Errorf("clamped page = %d alerts limit %d offset %d", len(body.Alerts), body.Limit, body.Offset)
	}
}

func TestListHandler_Errors(t *testing.T) {
	repo := repository.NewMemoryRepository()
	if status, _ := get(t, newApp(repo, ""), "/security-alerts"); status != fiber.StatusUnauthorized {
		t.Errorf("no identity: status %d, want 401", status)
	}
	status, body := get(t, newApp(failingRepo{}, "t1"), "/security-alerts")
	if status != fiber.StatusInternalServerError || body.Alerts != nil {
		t.Errorf("store failure: status %d", status)
	}
}

type failingRepo struct{}

func (failingRepo) Create(context.Context, *domain.Alert) error { return errors.New("db down") }

func (failingRepo) ListByTenant(context.Context, string, int, int) ([]*domain.Alert, error) {
	return nil, errors.New("db down")
}
