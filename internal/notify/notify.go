// Package notify delivers push notifications and mail. Both contracts are best-effort: they have no error
// result, failures are logged by the implementation and never reach the caller.
package notify

import (
	"context"
	"log"
)

// Notification is one push/in-app message addressed to an account.
type Notification struct {
	TenantID  string            `json:"tenant_id"`
	AccountID string            `json:"account_id"`
	Kind      string            `json:"kind"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
}

// Dispatcher queues a notification for delivery. It must not block on the delivery itself and must not fail the caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification)
}

// Mailer sends an email. Like Dispatcher it swallows and logs failures.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string)
}

// NoopDispatcher drops notifications. Used when no broker is configured.
type NoopDispatcher struct{}

func (NoopDispatcher) Dispatch(_ context.Context, n Notification) {
	log.Printf("notify: no dispatcher configured; dropping %s notification for account %s", n.Kind, n.AccountID)
}

// NoopMailer drops mail without logging its body, which may hold a one-time code.
type NoopMailer struct{}

func (NoopMailer) Send(_ context.Context, _, subject, _ string) {
	log.Printf("notify: no mailer configured; dropping mail %q", subject)
}
