// Package auth implements the bearer-token contract used by the HTTP layer:
// Issue(userID, role) -> token and Verify(token) -> identity.
package auth

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Mikaelbfaa/cardshop/internal/domain/user"
)

// ErrInvalidToken is returned for missing, malformed, expired, or otherwise
// unverifiable tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// Identity is the authenticated subject extracted from a verified token.
type Identity struct {
	UserID string
	Role   user.Role
}

// IsAdmin reports whether the subject holds the ADMIN role.
func (i Identity) IsAdmin() bool {
	return i.Role == user.RoleAdmin
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Manager issues and verifies HMAC-signed JWTs.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager creates a token Manager. ttl bounds token lifetime.
func NewManager(secret []byte, ttl time.Duration) *Manager {
	return &Manager{secret: secret, ttl: ttl}
}

// Issue signs a token carrying the user ID as subject and the role claim.
func (m *Manager) Issue(userID string, role user.Role) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

// Verify parses and validates a token, returning the subject identity.
func (m *Manager) Verify(tokenString string) (*Identity, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if c.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &Identity{UserID: c.Subject, Role: user.Role(c.Role)}, nil
}
