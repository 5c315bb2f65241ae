package otp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	accountdomain "school-management/backend/internal/account/domain"
	"school-management/backend/internal/db"
	"school-management/backend/internal/notify"
	"school-management/backend/internal/otp/domain"
	"school-management/backend/internal/otp/repository"
)

var (
	// ErrOtpInvalidOrExpired covers a wrong, expired, used or missing code.
	ErrOtpInvalidOrExpired = errors.New("otp invalid or expired")
	// ErrOtpAttemptsExhausted is returned by Verify once the latest code has no attempts left.
	ErrOtpAttemptsExhausted = errors.New("otp attempts exhausted")
)

// Config holds the code policy. Zero fields take the defaults of DefaultConfig.
type Config struct {
	Length      int
	TTL         time.Duration
	Cooldown    time.Duration
	MaxAttempts int
}

// DefaultConfig is a 6-digit code valid for 5 minutes, one per minute, 5 guesses.
func DefaultConfig() Config {
	return Config{Length: 6, TTL: 300 * time.Second, Cooldown: 60 * time.Second, MaxAttempts: 5}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Length <= 0 {
		c.Length = d.Length
	}
	if c.TTL <= 0 {
		c.TTL = d.TTL
	}
	if c.Cooldown <= 0 {
		c.Cooldown = d.Cooldown
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	return c
}

// CredentialWriter locks an account and writes a new password hash, clearing the must-change flag.
type CredentialWriter interface {
	LockForUpdate(ctx context.Context, accountID string) error
	UpdatePassword(ctx context.Context, accountID, passwordHash string) error
}

// SessionRevoker ends every session of an account.
type SessionRevoker interface {
	RevokeAll(ctx context.Context, accountID string) error
}

// Service issues, verifies and consumes password-reset codes.
type Service struct {
	repo     repository.Repository
	tx       db.TxRunner
	creds    CredentialWriter
	sessions SessionRevoker
	mailer   notify.Mailer
	cfg      Config
	now      func() time.Time
}

// NewService returns a Service. mailer may be nil, in which case codes are generated but not delivered.
func NewService(repo repository.Repository, tx db.TxRunner, creds CredentialWriter, sessions SessionRevoker, mailer notify.Mailer, cfg Config) *Service {
	if mailer == nil {
		mailer = notify.NoopMailer{}
	}
	return &Service{
		repo:     repo,
		tx:       tx,
		creds:    creds,
		sessions: sessions,
		mailer:   mailer,
		cfg:      cfg.withDefaults(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Issue creates a new challenge for acct and mails the code, unless the latest challenge is still in
// cooldown, in which case it does nothing and reports false. The raw code is never stored or logged.
// The account row is locked first so concurrent first requests cannot both pass the cooldown check.
func (s *Service) Issue(ctx context.Context, acct *accountdomain.Account) (bool, error) {
	var code string
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.creds.LockForUpdate(ctx, acct.ID); err != nil {
			return fmt.Errorf("lock account: %w", err)
		}
		now := s.now()
		latest, err := s.repo.LatestForUpdate(ctx, acct.ID, acct.Email)
		if err != nil {
			return fmt.Errorf("load latest otp: %w", err)
		}
		if latest != nil && latest.InCooldown(now) {
			return nil
		}
		c, err := GenerateCode(s.cfg.Length)
		if err != nil {
			return fmt.Errorf("generate otp: %w", err)
		}
		salt, err := GenerateSalt()
		if err != nil {
			return fmt.Errorf("generate otp salt: %w", err)
		}
		ch := &domain.Challenge{
			AccountID:     acct.ID,
			Email:         acct.Email,
			OTPHash:       HashCode(c, salt),
			OTPSalt:       salt,
			MaxAttempts:   s.cfg.MaxAttempts,
			ExpiresAt:     now.Add(s.cfg.TTL),
			CooldownUntil: now.Add(s.cfg.Cooldown),
			CreatedAt:     now,
		}
		if err := s.repo.Create(ctx, ch); err != nil {
			return fmt.Errorf("create otp: %w", err)
		}
		code = c
		return nil
	})
	if err != nil || code == "" {
		return false, err
	}
	s.mailer.Send(ctx, acct.Email, "Your password reset code",
		fmt.Sprintf("Your password reset code is %s. It expires in %d minutes.", code, int(s.cfg.TTL.Minutes())))
	return true, nil
}

// Verify checks code against the latest challenge without consuming it. A wrong code costs one attempt.
// Returns nil when the code is valid.
func (s *Service) Verify(ctx context.Context, accountID, email, code string) error {
	var result error
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		ch, err := s.repo.LatestForUpdate(ctx, accountID, email)
		if err != nil {
			return fmt.Errorf("load latest otp: %w", err)
		}
		result, err = s.check(ctx, ch, code)
		return err
	})
	if err != nil {
		return err
	}
	return result
}

// check validates ch and code. A mismatch on a usable challenge increments attempts; the returned
// sentinel is the outcome, the error is a persistence failure.
func (s *Service) check(ctx context.Context, ch *domain.Challenge, code string) (outcome error, err error) {
	now := s.now()
	switch {
	case ch == nil:
		return ErrOtpInvalidOrExpired, nil
	case ch.Usable(now):
	case ch.UsedAt == nil && !ch.Expired(now):
		return ErrOtpAttemptsExhausted, nil
	default:
		return ErrOtpInvalidOrExpired, nil
	}
	if !CodeEqual(code, ch.OTPSalt, ch.OTPHash) {
		if err := s.repo.IncrementAttempts(ctx, ch.ID); err != nil {
			return nil, fmt.Errorf("increment otp attempts: %w", err)
		}
		return ErrOtpInvalidOrExpired, nil
	}
	return nil, nil
}

// ConsumeForReset re-checks code and, in one transaction, marks it used, writes passwordHash and, when
// revokeSessions is set, ends every session of the account. Any failure returns ErrOtpInvalidOrExpired
// and leaves the password and sessions untouched; a wrong code still costs one attempt.
func (s *Service) ConsumeForReset(ctx context.Context, acct *accountdomain.Account, code, passwordHash string, revokeSessions bool) error {
	var outcome error
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		ch, err := s.repo.LatestForUpdate(ctx, acct.ID, acct.Email)
		if err != nil {
			return fmt.Errorf("load latest otp: %w", err)
		}
		outcome, err = s.check(ctx, ch, code)
		if err != nil || outcome != nil {
			return err
		}
		ok, err := s.repo.MarkUsed(ctx, ch.ID, s.now())
		if err != nil {
			return fmt.Errorf("mark otp used: %w", err)
		}
		if !ok {
			outcome = ErrOtpInvalidOrExpired
			return nil
		}
		if err := s.creds.UpdatePassword(ctx, acct.ID, passwordHash); err != nil {
			return fmt.Errorf("update password: %w", err)
		}
		if revokeSessions {
			if err := s.sessions.RevokeAll(ctx, acct.ID); err != nil {
				return fmt.Errorf("revoke sessions: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("otp: reset for account %s failed: %v", acct.ID, err)
		return err
	}
	if outcome != nil {
		return ErrOtpInvalidOrExpired
	}
	return nil
}
