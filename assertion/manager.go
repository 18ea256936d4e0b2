package assertion

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalid covers every verification failure: bad signature, expiry,
	// wrong identity, malformed token. Callers get no finer detail by design.
	ErrInvalid = errors.New("assertion invalid")
)

// Config controls assertion issuance.
type Config struct {
	// TTL is the validity window stamped into every assertion.
	TTL time.Duration
	// SigningKey is the HS256 secret. Required.
	SigningKey []byte
	// Issuer is stamped into the iss claim and checked on verify.
	Issuer string
}

// Manager signs and verifies step-up assertions. Immutable after
// construction; safe for concurrent use.
type Manager struct {
	config Config
}

// Claims is the assertion payload. The challenge session that produced the
// assertion is recorded for audit correlation only.
type Claims struct {
	ChallengeSession string `json:"csn,omitempty"`
	jwt.RegisteredClaims
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.TTL > time.Hour {
		return nil, errors.New("assertion TTL must not exceed one hour")
	}
	if len(cfg.SigningKey) == 0 {
		return nil, errors.New("signing key required")
	}
	return &Manager{config: cfg}, nil
}

// Issue signs an assertion for identity at now. Returns the compact token and
// its expiry.
func (m *Manager) Issue(identity, sessionID string, now time.Time) (string, time.Time, error) {
	if m == nil {
		return "", time.Time{}, errors.New("nil manager")
	}

	expiresAt := now.Add(m.config.TTL)
	claims := Claims{
		ChallengeSession: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity,
			Issuer:    m.config.Issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.config.SigningKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks token against identity at now. Any failure maps to
// [ErrInvalid].
func (m *Manager) Verify(token, identity string, now time.Time) error {
	if m == nil || token == "" {
		return ErrInvalid
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalid
		}
		return m.config.SigningKey, nil
	}, jwt.WithTimeFunc(func() time.Time { return now }), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return ErrInvalid
	}

	if claims.Subject == "" || claims.Subject != identity {
		return ErrInvalid
	}
	if m.config.Issuer != "" && claims.Issuer != m.config.Issuer {
		return ErrInvalid
	}
	if claims.ExpiresAt == nil || !now.Before(claims.ExpiresAt.Time) {
		return ErrInvalid
	}
	return nil
}
