// Package token issues and verifies the signed access and refresh tokens
// handed out at login. Only the subject (username), token id and expiry are
// carried; authorization data is always read from the user store.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongKind    = errors.New("wrong token kind")
)

// Identity is what a verified token yields.
type Identity struct {
	Username  string
	TokenID   uuid.UUID
	Kind      Kind
	ExpiresAt time.Time
}

// Claims is the JWT payload.
type Claims struct {
	Kind Kind `json:"typ"`
	jwt.RegisteredClaims
}

// Issued is a freshly signed token.
type Issued struct {
	Token     string
	TokenID   uuid.UUID
	ExpiresAt time.Time
}

type Manager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewManager(secret, issuer string, accessTTL, refreshTTL time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("token secret is empty")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}
	return &Manager{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

func (m *Manager) IssueAccess(username string) (*Issued, error) {
	return m.issue(username, KindAccess, m.accessTTL)
}

func (m *Manager) IssueRefresh(username string) (*Issued, error) {
	return m.issue(username, KindRefresh, m.refreshTTL)
}

func (m *Manager) issue(username string, kind Kind, ttl time.Duration) (*Issued, error) {
	now := m.now()
	id := uuid.New()
	expiresAt := now.Add(ttl)

	claims := Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id.String(),
			Subject:   username,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("sign %s token: %w", kind, err)
	}

	return &Issued{Token: signed, TokenID: id, ExpiresAt: expiresAt}, nil
}

// Parse verifies signature, issuer, expiry and kind. Every failure wraps
// ErrInvalidToken so callers can treat them alike.
func (m *Manager) Parse(raw string, want Kind) (*Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Kind != want {
		return nil, fmt.Errorf("%w: %w: got %q", ErrInvalidToken, ErrWrongKind, claims.Kind)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	id, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad token id", ErrInvalidToken)
	}

	return &Identity{
		Username:  claims.Subject,
		TokenID:   id,
		Kind:      claims.Kind,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
