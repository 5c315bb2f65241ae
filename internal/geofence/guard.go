package geofence

import (
	"context"
	"fmt"
	"log"

	accountdomain "school-management/backend/internal/account/domain"
	alertdomain "school-management/backend/internal/alert/domain"
	"school-management/backend/internal/notify"
	"school-management/backend/internal/role"
	tenantdomain "school-management/backend/internal/tenant/domain"
)

// AlertStore is the append-only sink for security alerts.
type AlertStore interface {
	Create(ctx context.Context, a *alertdomain.Alert) error
}

// RecipientLister finds the accounts to alert.
type RecipientLister interface {
	ListActiveByTenantAndRole(ctx context.Context, tenantID string, r role.Role) ([]*accountdomain.Account, error)
}

// Guard applies Decide to a login and, on denial, records an alert and notifies the tenant's oversight role.
type Guard struct {
	alerts     AlertStore
	recipients RecipientLister
	dispatcher notify.Dispatcher
}

// NewGuard returns a Guard. dispatcher may be nil, in which case no fan-out happens.
func NewGuard(alerts AlertStore, recipients RecipientLister, dispatcher notify.Dispatcher) *Guard {
	if dispatcher == nil {
		dispatcher = notify.NoopDispatcher{}
	}
	return &Guard{alerts: alerts, recipients: recipients, dispatcher: dispatcher}
}

// Check returns nil when acct may log in from at, or one of ErrGeoLocationMissing, ErrGeofenceNotConfigured
// and ErrOutsideGeofence. Alert and fan-out failures are logged and never change the returned decision.
func (g *Guard) Check(ctx context.Context, tenant *tenantdomain.Tenant, acct *accountdomain.Account, at *Point) error {
	d := Decide(tenant.Geofence, at)
	if d.Allowed() {
		return nil
	}

	a := &alertdomain.Alert{
		TenantID:  tenant.ID,
		AccountID: acct.ID,
		Type:      alertType(d.Err),
		Message:   alertMessage(d, acct, tenant),
		DistanceM: d.DistanceM,
		Status:    alertdomain.StatusOpen,
	}
	if at != nil && at.Valid() {
		lat, lng := at.Latitude, at.Longitude
		a.Latitude, a.Longitude = &lat, &lng
	}
	if err := g.alerts.Create(ctx, a); err != nil {
		log.Printf("geofence: failed to record alert for account %s: %v", acct.ID, err)
	}
	g.fanOut(ctx, tenant.ID, a)
	return d.Err
}

func (g *Guard) fanOut(ctx context.Context, tenantID string, a *alertdomain.Alert) {
	admins, err := g.recipients.ListActiveByTenantAndRole(ctx, tenantID, role.OversightRole())
	if err != nil {
		log.Printf("geofence: failed to list alert recipients for tenant %s: %v", tenantID, err)
		return
	}
	for _, admin := range admins {
		g.dispatcher.Dispatch(ctx, notify.Notification{
			TenantID:  tenantID,
			AccountID: admin.ID,
			Kind:      "security_alert",
			Title:     "Login blocked by geofence",
			Body:      a.Message,
			Data: map[string]string{
				"alert_id":   a.ID,
				"alert_type": string(a.Type),
				"account_id": a.AccountID,
			},
		})
	}
}

func alertType(err error) alertdomain.Type {
	switch err {
	case ErrGeoLocationMissing:
		return alertdomain.TypeGeoLocationMissing
	case ErrGeofenceNotConfigured:
		return alertdomain.TypeGeofenceNotConfigured
	default:
		return alertdomain.TypeOutsideGeofence
	}
}

func alertMessage(d Decision, acct *accountdomain.Account, tenant *tenantdomain.Tenant) string {
	switch d.Err {
	case ErrGeoLocationMissing:
		return fmt.Sprintf("%s tried to log in without sharing a location", acct.Email)
	case ErrGeofenceNotConfigured:
		return fmt.Sprintf("%s tried to log in but %s has no geofence configured", acct.Email, tenant.Name)
	default:
		return fmt.Sprintf("%s tried to log in %dm from %s (allowed radius %.0fm)",
			acct.Email, *d.DistanceM, tenant.Name, tenant.Geofence.RadiusM)
	}
}
