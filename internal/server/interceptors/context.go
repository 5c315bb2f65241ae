package interceptors

import (
	"context"

	"school-management/backend/internal/role"
)

type contextKey struct{ name string }

var (
	identityKey = contextKey{"identity"}
	clientIPKey = contextKey{"client_ip"}
)

// Identity is the caller resolved from a verified access token.
type Identity struct {
	AccountID  string
	TenantID   string
	TenantCode string
	Email      string
	Role       role.Role
	DeviceID   string
}

// WithIdentity returns a context carrying id. Handlers and services read it via IdentityFrom.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the identity from context and true if set.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(identityKey).(Identity)
	return v, ok && v.AccountID != ""
}

// WithClientIP returns a context carrying the caller's IP.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIP returns the IP stored by WithClientIP, or "" if none.
func ClientIP(ctx context.Context) string {
	v, _ := ctx.Value(clientIPKey).(string)
	return v
}
