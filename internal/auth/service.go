// Package auth orchestrates login, refresh, logout, device registration and password recovery on top of
// the token service, the session registry, the geofence guard and the OTP flow.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	accountdomain "school-management/backend/internal/account/domain"
	"school-management/backend/internal/audit"
	devicedomain "school-management/backend/internal/device/domain"
	"school-management/backend/internal/geofence"
	"school-management/backend/internal/otp"
	"school-management/backend/internal/ratelimit"
	"school-management/backend/internal/role"
	"school-management/backend/internal/security"
	"school-management/backend/internal/session"
	sessiondomain "school-management/backend/internal/session/domain"
	"school-management/backend/internal/telemetry"
	telemetrydomain "school-management/backend/internal/telemetry/domain"
	tenantdomain "school-management/backend/internal/tenant/domain"
)

// Sentinel errors for the auth service; the HTTP handler maps them to status codes.
var (
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrAccountDisabled         = errors.New("account disabled")
	ErrPasswordPolicyViolation = errors.New("password does not meet policy")
	ErrPasswordMismatch        = errors.New("passwords do not match")
)

// UnboundDeviceID is the session key used by roles that are not device-bound when the client sends no device id.
const UnboundDeviceID = "unbound"

// maxPasswordBytes is the longest password bcrypt hashes without truncation.
const maxPasswordBytes = 72

// TenantDirectory resolves schools.
type TenantDirectory interface {
	GetByID(ctx context.Context, id string) (*tenantdomain.Tenant, error)
	GetByCode(ctx context.Context, code string) (*tenantdomain.Tenant, error)
}

// CredentialStore resolves accounts.
type CredentialStore interface {
	GetByID(ctx context.Context, id string) (*accountdomain.Account, error)
	GetByTenantAndEmail(ctx context.Context, tenantID, email string) (*accountdomain.Account, error)
}

// SessionRegistry is the session lifecycle used by the auth flows.
type SessionRegistry interface {
	CreateOrRotate(ctx context.Context, accountID, deviceID, refreshHash string, policy role.Policy, ip string) error
	Rotate(ctx context.Context, accountID, deviceID, presentedToken, newHash string) error
	Revoke(ctx context.Context, accountID, deviceID string) error
	RevokeAll(ctx context.Context, accountID string) error
	List(ctx context.Context, accountID string) ([]*sessiondomain.Session, error)
}

// LocationGuard decides whether a geofenced login may proceed.
type LocationGuard interface {
	Check(ctx context.Context, tenant *tenantdomain.Tenant, acct *accountdomain.Account, at *geofence.Point) error
}

// RecoveryFlow issues, verifies and consumes password-reset codes.
type RecoveryFlow interface {
	Issue(ctx context.Context, acct *accountdomain.Account) (bool, error)
	Verify(ctx context.Context, accountID, email, code string) error
	ConsumeForReset(ctx context.Context, acct *accountdomain.Account, code, passwordHash string, revokeSessions bool) error
}

// DeviceTokenStore records push tokens for the notification worker.
type DeviceTokenStore interface {
	Upsert(ctx context.Context, t *devicedomain.Token) error
}

// Limiter throttles logins and forgot-password requests.
type Limiter interface {
	CheckLogin(ctx context.Context, tenantCode, email, ip string) error
	RecordLoginFailure(ctx context.Context, tenantCode, email, ip string) error
	ResetLogin(ctx context.Context, tenantCode, email string) error
	AllowForgot(ctx context.Context, ip string) error
}

// Deps are the collaborators of Service. Audit, Emitter, Metrics and Limiter are optional.
type Deps struct {
	Tenants           TenantDirectory
	Accounts          CredentialStore
	Sessions          SessionRegistry
	Guard             LocationGuard
	Recovery          RecoveryFlow
	DeviceTokens      DeviceTokenStore
	Tokens            *security.TokenProvider
	Hasher            *security.Hasher
	Limiter           Limiter
	Audit             audit.AuditLogger
	Emitter           telemetry.EventEmitter
	Metrics           *telemetry.Metrics
	PasswordMinLength int
}

// Service implements the auth operations.
type Service struct {
	Deps
}

// NewService returns a Service over deps.
func NewService(deps Deps) *Service {
	if deps.Audit == nil {
		deps.Audit = audit.Nop{}
	}
	if deps.Limiter == nil {
		deps.Limiter = (*ratelimit.Limiter)(nil)
	}
	if deps.PasswordMinLength <= 0 {
		deps.PasswordMinLength = 8
	}
	return &Service{Deps: deps}
}

// TokenPair is an access token plus the refresh token that renews it.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// LoginInput is a password login from one device. Latitude and Longitude are both set or the location is missing.
type LoginInput struct {
	TenantCode string
	Email      string
	Password   string
	DeviceID   string
	Latitude   *float64
	Longitude  *float64
	PushToken  string
	Platform   string
	IP         string
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	TokenPair
	AccountID          string
	TenantID           string
	Role               role.Role
	DeviceID           string
	MustChangePassword bool
}

// Login verifies credentials, applies the geofence for geofenced roles, opens or rotates the device session
// and issues a token pair. Unknown tenants, unknown emails and wrong passwords are all ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	code := tenantdomain.NormalizeCode(in.TenantCode)
	email := accountdomain.NormalizeEmail(in.Email)
	if code == "" || email == "" || in.Password == "" {
		return nil, ErrInvalidCredentials
	}
	if err := s.Limiter.CheckLogin(ctx, code, email, in.IP); err != nil {
		if errors.Is(err, ratelimit.ErrRateLimited) {
			s.Metrics.Login(ctx, "rate_limited")
			return nil, err
		}
		log.Printf("auth: login limiter unavailable, continuing: %v", err)
	}

	tenant, acct, err := s.authenticate(ctx, code, email, in.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.loginFailed(ctx, code, email, in.IP, tenant, acct)
		}
		return nil, err
	}
	if !acct.Active {
		s.Metrics.Login(ctx, "account_disabled")
		s.Audit.LogEvent(ctx, tenant.ID, acct.ID, audit.ActionLoginFailure, audit.ResourceSession, "reason=account_disabled")
		return nil, ErrAccountDisabled
	}

	policy := acct.Role.Policy()
	deviceID := strings.TrimSpace(in.DeviceID)
	if deviceID == "" {
		if policy.DeviceBound {
			s.Metrics.Login(ctx, "device_binding_missing")
			return nil, session.ErrDeviceBindingMissing
		}
		deviceID = UnboundDeviceID
	}

	if policy.Geofenced {
		if err := s.Guard.Check(ctx, tenant, acct, pointFrom(in.Latitude, in.Longitude)); err != nil {
			reason := denialReason(err)
			s.Metrics.Login(ctx, "geofence_denied")
			s.Metrics.GeofenceDenial(ctx, reason)
			s.Audit.LogEvent(ctx, tenant.ID, acct.ID, audit.ActionLoginDenied, audit.ResourceSession, "reason="+reason)
			s.emit(ctx, tenant.ID, acct.ID, deviceID, audit.ActionLoginDenied, map[string]string{"reason": reason})
			return nil, err
		}
	}

	pair, err := s.openSession(ctx, acct, tenant, deviceID, policy, in.IP)
	if err != nil {
		return nil, err
	}

	if in.PushToken != "" {
		s.registerPushToken(ctx, acct.ID, deviceID, in.PushToken, in.Platform)
	}
	if err := s.Limiter.ResetLogin(ctx, code, email); err != nil {
		log.Printf("auth: failed to reset login counter: %v", err)
	}
	s.Metrics.Login(ctx, "success")
	s.Audit.LogEvent(ctx, tenant.ID, acct.ID, audit.ActionLoginSuccess, audit.ResourceSession, "device="+deviceID)
	s.emit(ctx, tenant.ID, acct.ID, deviceID, audit.ActionLoginSuccess, nil)

	return &LoginResult{
		TokenPair:          *pair,
		AccountID:          acct.ID,
		TenantID:           tenant.ID,
		Role:               acct.Role,
		DeviceID:           deviceID,
		MustChangePassword: acct.MustChangePassword,
	}, nil
}

// authenticate resolves the tenant and account and checks the password. A dummy compare runs when either
// is missing so response time does not reveal which.
func (s *Service) authenticate(ctx context.Context, code, email, password string) (*tenantdomain.Tenant, *accountdomain.Account, error) {
	tenant, err := s.Tenants.GetByCode(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("load tenant: %w", err)
	}
	if tenant == nil || !tenant.Active {
		s.Hasher.CompareDummy([]byte(password))
		return tenant, nil, ErrInvalidCredentials
	}
	acct, err := s.Accounts.GetByTenantAndEmail(ctx, tenant.ID, email)
	if err != nil {
		return tenant, nil, fmt.Errorf("load account: %w", err)
	}
	if acct == nil || acct.PasswordHash == "" {
		s.Hasher.CompareDummy([]byte(password))
		return tenant, nil, ErrInvalidCredentials
	}
	if err := s.Hasher.Compare(acct.PasswordHash, []byte(password)); err != nil {
		return tenant, acct, ErrInvalidCredentials
	}
	return tenant, acct, nil
}

func (s *Service) loginFailed(ctx context.Context, code, email, ip string, tenant *tenantdomain.Tenant, acct *accountdomain.Account) {
	if err := s.Limiter.RecordLoginFailure(ctx, code, email, ip); err != nil {
		log.Printf("auth: failed to record login failure: %v", err)
	}
	s.Metrics.Login(ctx, "invalid_credentials")
	var tenantID, accountID string
	if tenant != nil {
		tenantID = tenant.ID
	}
	if acct != nil {
		accountID = acct.ID
	}
	s.Audit.LogEvent(ctx, tenantID, accountID, audit.ActionLoginFailure, audit.ResourceSession, "reason=invalid_credentials")
}

// openSession issues the refresh token, stores its hash in the registry and then issues the access token.
func (s *Service) openSession(ctx context.Context, acct *accountdomain.Account, tenant *tenantdomain.Tenant, deviceID string, policy role.Policy, ip string) (*TokenPair, error) {
	refresh, refreshExp, err := s.Tokens.IssueRefresh(acct.ID, deviceID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	if err := s.Sessions.CreateOrRotate(ctx, acct.ID, deviceID, security.HashRefreshToken(refresh), policy, ip); err != nil {
		return nil, err
	}
	access, accessExp, err := s.Tokens.IssueAccess(subjectOf(acct, tenant), deviceID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token becomes unusable; replaying it
// returns security.ErrTokenInvalid. deviceID, when given, must match the token's device.
func (s *Service) Refresh(ctx context.Context, refreshToken, deviceID string) (*TokenPair, error) {
	claims, err := s.Tokens.Verify(refreshToken, security.KindRefresh)
	if err != nil {
		s.Metrics.Refresh(ctx, "invalid")
		return nil, err
	}
	deviceID = strings.TrimSpace(deviceID)
	if deviceID != "" && deviceID != claims.DeviceID {
		s.Metrics.Refresh(ctx, "device_mismatch")
		return nil, security.ErrTokenInvalid
	}
	acct, err := s.Accounts.GetByID(ctx, claims.AccountID())
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	if acct == nil {
		return nil, security.ErrTokenInvalid
	}
	if !acct.Active {
		return nil, ErrAccountDisabled
	}
	tenant, err := s.Tenants.GetByID(ctx, acct.TenantID)
	if err != nil {
		return nil, fmt.Errorf("load tenant: %w", err)
	}
	if tenant == nil || !tenant.Active {
		return nil, ErrAccountDisabled
	}

	refresh, refreshExp, err := s.Tokens.IssueRefresh(acct.ID, claims.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	if err := s.Sessions.Rotate(ctx, acct.ID, claims.DeviceID, refreshToken, security.HashRefreshToken(refresh)); err != nil {
		if errors.Is(err, session.ErrRefreshTokenMismatch) {
			s.Metrics.Refresh(ctx, "replayed")
			return nil, security.ErrTokenInvalid
		}
		if errors.Is(err, session.ErrSessionRevoked) {
			s.Metrics.Refresh(ctx, "revoked")
		}
		return nil, err
	}
	access, accessExp, err := s.Tokens.IssueAccess(subjectOf(acct, tenant), claims.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	s.Metrics.Refresh(ctx, "rotated")
	s.Audit.LogEvent(ctx, tenant.ID, acct.ID, audit.ActionTokenRefresh, audit.ResourceSession, "device="+claims.DeviceID)
	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Logout revokes the session on deviceID (the caller's own device when empty), or every session when allDevices is set.
func (s *Service) Logout(ctx context.Context, accountID, callerDeviceID, deviceID string, allDevices bool) error {
	if allDevices {
		return s.Sessions.RevokeAll(ctx, accountID)
	}
	if deviceID = strings.TrimSpace(deviceID); deviceID == "" {
		deviceID = callerDeviceID
	}
	if deviceID == "" {
		return session.ErrDeviceBindingMissing
	}
	return s.Sessions.Revoke(ctx, accountID, deviceID)
}

// RegisterDevice upserts the push token for the account's device (the caller's own device when deviceID is empty).
func (s *Service) RegisterDevice(ctx context.Context, accountID, callerDeviceID, deviceID, pushToken, platform string) (*devicedomain.Token, error) {
	if deviceID = strings.TrimSpace(deviceID); deviceID == "" {
		deviceID = callerDeviceID
	}
	if deviceID == "" {
		return nil, session.ErrDeviceBindingMissing
	}
	t := &devicedomain.Token{
		AccountID: accountID,
		DeviceID:  deviceID,
		PushToken: strings.TrimSpace(pushToken),
		Platform:  strings.ToLower(strings.TrimSpace(platform)),
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := s.DeviceTokens.Upsert(ctx, t); err != nil {
		return nil, fmt.Errorf("upsert device token: %w", err)
	}
	return t, nil
}

func (s *Service) registerPushToken(ctx context.Context, accountID, deviceID, pushToken, platform string) {
	if _, err := s.RegisterDevice(ctx, accountID, deviceID, deviceID, pushToken, platform); err != nil {
		log.Printf("auth: failed to register push token for account %s: %v", accountID, err)
	}
}

// ListSessions returns the account's sessions, active and revoked.
func (s *Service) ListSessions(ctx context.Context, accountID string) ([]*sessiondomain.Session, error) {
	return s.Sessions.List(ctx, accountID)
}

// ForgotPassword issues a reset code when the tenant and an active account exist. It never reports
// whether they do; failures are logged only.
func (s *Service) ForgotPassword(ctx context.Context, tenantCode, email, ip string) {
	if err := s.Limiter.AllowForgot(ctx, ip); err != nil {
		if errors.Is(err, ratelimit.ErrRateLimited) {
			return
		}
		log.Printf("auth: forgot-password limiter unavailable, continuing: %v", err)
	}
	acct, err := s.resolveAccount(ctx, tenantCode, email)
	if err != nil {
		log.Printf("auth: forgot-password lookup failed: %v", err)
		return
	}
	if acct == nil || !acct.Active {
		return
	}
	issued, err := s.Recovery.Issue(ctx, acct)
	if err != nil {
		log.Printf("auth: failed to issue reset code for account %s: %v", acct.ID, err)
		return
	}
	if issued {
		s.Metrics.OTPIssued(ctx)
	}
}

// VerifyOtp reports whether code is currently valid for the account, without consuming it.
// Unknown accounts report false.
func (s *Service) VerifyOtp(ctx context.Context, tenantCode, email, code string) bool {
	acct, err := s.resolveAccount(ctx, tenantCode, email)
	if err != nil {
		log.Printf("auth: verify-otp lookup failed: %v", err)
		return false
	}
	if acct == nil || !acct.Active {
		return false
	}
	err = s.Recovery.Verify(ctx, acct.ID, acct.Email, strings.TrimSpace(code))
	switch {
	case err == nil:
		s.Metrics.OTPVerification(ctx, "valid")
		return true
	case errors.Is(err, otp.ErrOtpAttemptsExhausted):
		s.Metrics.OTPVerification(ctx, "exhausted")
	case errors.Is(err, otp.ErrOtpInvalidOrExpired):
		s.Metrics.OTPVerification(ctx, "invalid")
	default:
		log.Printf("auth: verify-otp failed for account %s: %v", acct.ID, err)
	}
	return false
}

// ResetPasswordInput carries a reset request.
type ResetPasswordInput struct {
	TenantCode      string
	Email           string
	Code            string
	NewPassword     string
	ConfirmPassword string
}

// ResetPassword checks the new password, then consumes code and writes the new hash. Privileged roles
// lose every session. Returns ErrPasswordMismatch or ErrPasswordPolicyViolation for bad input and
// otp.ErrOtpInvalidOrExpired for a bad code or an unknown account.
func (s *Service) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if in.NewPassword != in.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if err := s.checkPasswordPolicy(in.NewPassword); err != nil {
		return err
	}
	hash, err := s.Hasher.Hash([]byte(in.NewPassword))
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	acct, err := s.resolveAccount(ctx, in.TenantCode, in.Email)
	if err != nil {
		return err
	}
	if acct == nil || !acct.Active {
		return otp.ErrOtpInvalidOrExpired
	}
	revoke := acct.Role.Policy().SingleDevice
	if err := s.Recovery.ConsumeForReset(ctx, acct, strings.TrimSpace(in.Code), hash, revoke); err != nil {
		if errors.Is(err, otp.ErrOtpInvalidOrExpired) {
			s.Metrics.OTPVerification(ctx, "invalid")
		}
		return err
	}
	s.Metrics.OTPVerification(ctx, "consumed")
	s.Audit.LogEvent(ctx, acct.TenantID, acct.ID, audit.ActionPasswordReset, audit.ResourceAccount,
		fmt.Sprintf("sessions_revoked=%t", revoke))
	return nil
}

func (s *Service) checkPasswordPolicy(password string) error {
	if len([]rune(password)) < s.PasswordMinLength || len(password) > maxPasswordBytes {
		return ErrPasswordPolicyViolation
	}
	if strings.TrimSpace(password) == "" {
		return ErrPasswordPolicyViolation
	}
	return nil
}

// resolveAccount returns the account for (tenantCode, email), or nil when the tenant is unknown or
// inactive or the account does not exist.
func (s *Service) resolveAccount(ctx context.Context, tenantCode, email string) (*accountdomain.Account, error) {
	code := tenantdomain.NormalizeCode(tenantCode)
	email = accountdomain.NormalizeEmail(email)
	if code == "" || email == "" {
		return nil, nil
	}
	tenant, err := s.Tenants.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("load tenant: %w", err)
	}
	if tenant == nil || !tenant.Active {
		return nil, nil
	}
	acct, err := s.Accounts.GetByTenantAndEmail(ctx, tenant.ID, email)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return acct, nil
}

func (s *Service) emit(ctx context.Context, tenantID, accountID, deviceID, eventType string, attrs map[string]string) {
	telemetry.EmitAsync(s.Emitter, ctx, &telemetrydomain.Event{
		TenantID:   tenantID,
		AccountID:  accountID,
		DeviceID:   deviceID,
		EventType:  eventType,
		Source:     "auth",
		Attributes: attrs,
	})
}

func subjectOf(acct *accountdomain.Account, tenant *tenantdomain.Tenant) security.Subject {
	return security.Subject{
		AccountID:  acct.ID,
		Role:       string(acct.Role),
		TenantID:   tenant.ID,
		TenantCode: tenant.Code,
		Email:      acct.Email,
	}
}

func pointFrom(lat, lng *float64) *geofence.Point {
	if lat == nil || lng == nil {
		return nil
	}
	return &geofence.Point{Latitude: *lat, Longitude: *lng}
}

func denialReason(err error) string {
	switch {
	case errors.Is(err, geofence.ErrGeoLocationMissing):
		return "geo_location_missing"
	case errors.Is(err, geofence.ErrGeofenceNotConfigured):
		return "geofence_not_configured"
	case errors.Is(err, geofence.ErrOutsideGeofence):
		return "outside_geofence"
	default:
		return "unknown"
	}
}
