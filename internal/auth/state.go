package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultStateTTL    = 10 * time.Minute
	defaultStateIssuer = "iglogin"
)

var (
	// ErrMissingStateSigningSecret indicates an issuer built without a secret.
	ErrMissingStateSigningSecret = errors.New("state: signing secret required")
	// ErrMissingStateToken indicates an empty state value on callback.
	ErrMissingStateToken = errors.New("state: token required")
	// ErrInvalidStateToken indicates a state value this service never issued.
	ErrInvalidStateToken = errors.New("state: invalid token")
	// ErrExpiredStateToken indicates the login round-trip took too long.
	ErrExpiredStateToken = errors.New("state: token expired")
)

// StateIssuerConfig configures the login-state token issuer.
type StateIssuerConfig struct {
	SigningSecret []byte
	Issuer        string
	TTL           time.Duration
	Clock         func() time.Time
}

// StateIssuer mints and validates the per-request state tokens attached to the
// authorization redirect. Each token is a short-lived HS256 JWT with a unique
// id, so a callback can only complete a login this service started.
type StateIssuer struct {
	signingSecret []byte
	issuer        string
	ttl           time.Duration
	clock         func() time.Time
}

// NewStateIssuer constructs a StateIssuer with sane defaults.
func NewStateIssuer(cfg StateIssuerConfig) (*StateIssuer, error) {
	if len(cfg.SigningSecret) == 0 {
		return nil, ErrMissingStateSigningSecret
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = defaultStateIssuer
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &StateIssuer{
		signingSecret: append([]byte(nil), cfg.SigningSecret...),
		issuer:        issuer,
		ttl:           ttl,
		clock:         clock,
	}, nil
}

// Issue produces a signed single-login state token.
func (i *StateIssuer) Issue() (string, error) {
	tokenID, err := uuid.NewV7()
	if err != nil {
		return "", err
	}

	now := i.clock().UTC()
	claims := jwt.RegisteredClaims{
		ID:        tokenID.String(),
		Issuer:    i.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.signingSecret)
}

// Validate checks that the supplied state token was issued here and is still live.
func (i *StateIssuer) Validate(tokenString string) error {
	token := strings.TrimSpace(tokenString)
	if token == "" {
		return ErrMissingStateToken
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("%w: unexpected signing algorithm %s", ErrInvalidStateToken, t.Method.Alg())
			}
			return i.signingSecret, nil
		},
		jwt.WithIssuer(i.issuer),
		jwt.WithTimeFunc(i.clock),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpiredStateToken
		}
		return fmt.Errorf("%w: %v", ErrInvalidStateToken, err)
	}
	if parsed == nil || !parsed.Valid || claims.ID == "" {
		return ErrInvalidStateToken
	}
	return nil
}
