package domain

import "time"

// Challenge is one issued password-reset code. Only the latest challenge of an account is ever consulted.
// Its terminal states are derived from UsedAt, ExpiresAt and Attempts; there is no status column.
type Challenge struct {
	ID            string
	AccountID     string
	Email         string
	OTPHash       string
	OTPSalt       string
	Attempts      int
	MaxAttempts   int
	ExpiresAt     time.Time
	CooldownUntil time.Time
	UsedAt        *time.Time
	CreatedAt     time.Time
}

// Expired reports whether the code is past its expiry at now.
func (c *Challenge) Expired(now time.Time) bool { return !now.Before(c.ExpiresAt) }

// Exhausted reports whether every allowed attempt has been used.
func (c *Challenge) Exhausted() bool { return c.Attempts >= c.MaxAttempts }

// Usable reports whether the code can still be verified or consumed at now.
func (c *Challenge) Usable(now time.Time) bool {
	return c.UsedAt == nil && !c.Expired(now) && !c.Exhausted()
}

// InCooldown reports whether a new code may not yet be issued at now.
func (c *Challenge) InCooldown(now time.Time) bool { return now.Before(c.CooldownUntil) }
