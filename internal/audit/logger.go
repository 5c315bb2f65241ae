// Package audit records auth and session events. Recording is best-effort and never fails a request.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"school-management/backend/internal/audit/domain"
	auditrepo "school-management/backend/internal/audit/repository"
)

// Actions written by the auth flows.
const (
	ActionLoginSuccess  = "login_success"
	ActionLoginFailure  = "login_failure"
	ActionLoginDenied   = "login_denied"
	ActionTokenRefresh  = "token_refresh"
	ActionPasswordReset = "password_reset"
)

// ResourceSession and ResourceAccount are the resources auth events are recorded against.
const (
	ResourceSession = "session"
	ResourceAccount = "account"
)

// IPExtractor returns the client IP from the request context.
type IPExtractor func(context.Context) string

// AuditLogger writes a single audit event with explicit action/resource. Used by auth and session code paths.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, tenantID, accountID, action, resource, metadata string)
}

// Logger implements AuditLogger using the audit repository and an optional IP extractor.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
	now         func() time.Time
}

// NewLogger returns an AuditLogger that persists to repo and uses ipExtractor for client IP.
// ipExtractor may be nil; then IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor) *Logger {
	return &Logger{repo: repo, ipExtractor: ipExtractor, now: func() time.Time { return time.Now().UTC() }}
}

// LogEvent writes one audit log entry. A nil Logger or repository makes it a no-op.
func (l *Logger) LogEvent(ctx context.Context, tenantID, accountID, action, resource, metadata string) {
	if l == nil || l.repo == nil {
		return
	}
	ip := ""
	if l.ipExtractor != nil {
		ip = l.ipExtractor(ctx)
	}
	if ip == "" {
		ip = "unknown"
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		AccountID: accountID,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: l.now(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: failed to log event %s/%s: %v", action, resource, err)
	}
}

// Nop discards every event.
type Nop struct{}

func (Nop) LogEvent(context.Context, string, string, string, string, string) {}
