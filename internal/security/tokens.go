package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenInvalid is returned when a token is malformed, badly signed, of the wrong kind or for another issuer/audience.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired is returned when a correctly signed token is past its exp claim.
	ErrTokenExpired = errors.New("token expired")
)

// Kind distinguishes access tokens from refresh tokens; it is carried in the typ claim.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Subject is the account data embedded in an access token.
type Subject struct {
	AccountID  string
	Role       string
	TenantID   string
	TenantCode string
	Email      string
}

// Claims is the JWT payload of both token kinds. Refresh tokens only carry sub, device_id and typ.
type Claims struct {
	jwt.RegisteredClaims
	Kind       Kind   `json:"typ"`
	DeviceID   string `json:"device_id,omitempty"`
	Role       string `json:"role,omitempty"`
	TenantID   string `json:"tenant_id,omitempty"`
	TenantCode string `json:"tenant_code,omitempty"`
	Email      string `json:"email,omitempty"`
}

// AccountID returns the sub claim.
func (c *Claims) AccountID() string { return c.Subject }

// TokenProvider issues and verifies JWT access and refresh tokens using RS256 or ES256 (private/public key).
type TokenProvider struct {
	privateKey crypto.Signer
	publicKey  crypto.PublicKey
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenProvider returns a TokenProvider that signs with the given private key (RS256 or ES256).
// issuer and audience are set on claims and validated on Verify.
func NewTokenProvider(privateKey crypto.Signer, publicKey crypto.PublicKey, issuer, audience string, accessTTL, refreshTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// AccessTTL returns the configured access token lifetime.
func (p *TokenProvider) AccessTTL() time.Duration { return p.accessTTL }

// IssueAccess issues a short-lived access JWT for the account bound to deviceID.
func (p *TokenProvider) IssueAccess(sub Subject, deviceID string) (token string, expiresAt time.Time, err error) {
	claims, expiresAt, err := p.baseClaims(KindAccess, sub.AccountID, deviceID, p.accessTTL)
	if err != nil {
		return "", time.Time{}, err
	}
	claims.Role = sub.Role
	claims.TenantID = sub.TenantID
	claims.TenantCode = sub.TenantCode
	claims.Email = sub.Email
	token, err = p.sign(claims)
	return token, expiresAt, err
}

// IssueRefresh issues a long-lived refresh JWT. Every call yields a distinct token (random jti),
// so the stored hash of the previous token never matches a newly issued one.
func (p *TokenProvider) IssueRefresh(accountID, deviceID string) (token string, expiresAt time.Time, err error) {
	claims, expiresAt, err := p.baseClaims(KindRefresh, accountID, deviceID, p.refreshTTL)
	if err != nil {
		return "", time.Time{}, err
	}
	token, err = p.sign(claims)
	return token, expiresAt, err
}

func (p *TokenProvider) baseClaims(kind Kind, accountID, deviceID string, ttl time.Duration) (*Claims, time.Time, error) {
	jti, err := generateJTI()
	if err != nil {
		return nil, time.Time{}, err
	}
	now := p.now().UTC()
	expiresAt := now.Add(ttl)
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   accountID,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Kind:     kind,
		DeviceID: deviceID,
	}, expiresAt, nil
}

func (p *TokenProvider) sign(claims jwt.Claims) (string, error) {
	var method jwt.SigningMethod
	switch p.privateKey.Public().(type) {
	case *rsa.PublicKey:
		method = jwt.SigningMethodRS256
	case *ecdsa.PublicKey:
		method = jwt.SigningMethodES256
	default:
		return "", ErrInvalidKey
	}
	t := jwt.NewWithClaims(method, claims)
	return t.SignedString(p.privateKey)
}

// Verify parses tokenString and checks signature, exp, iss, aud and that the typ claim equals kind.
// It does not look at sessions; callers pair it with a session liveness check.
func (p *TokenProvider) Verify(tokenString string, kind Kind) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return p.publicKey, nil
	},
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
		jwt.WithIssuer(p.issuer),
		jwt.WithAudience(p.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid || claims.Kind != kind || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func generateJTI() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
