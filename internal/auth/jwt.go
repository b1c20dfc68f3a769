package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/heartmarshall/promptboard/internal/domain"
)

// SessionManager issues and validates signed session tokens.
type SessionManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionManager creates a session manager.
// secret must be at least 32 characters for HS256 security.
func NewSessionManager(secret string, issuer string, ttl time.Duration) *SessionManager {
	return &SessionManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Session is what a valid token asserts.
type Session struct {
	ID        string
	UserID    string
	Role      domain.UserRole
	ExpiresAt time.Time
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// TTL returns the lifetime of issued tokens.
func (m *SessionManager) TTL() time.Duration { return m.ttl }

// Issue creates a signed HS256 token for uid with a fresh session id.
func (m *SessionManager) Issue(uid string, role domain.UserRole) (string, Session, error) {
	if uid == "" {
		return "", Session{}, fmt.Errorf("issue token: empty uid")
	}

	now := m.now()
	s := Session{
		ID:        uuid.NewString(),
		UserID:    uid,
		Role:      role,
		ExpiresAt: now.Add(m.ttl),
	}
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Subject:   uid,
			Issuer:    m.issuer,
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role: string(role),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", Session{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, s, nil
}

// Validate parses a token and returns its session. Any failure wraps
// domain.ErrUnauthorized.
func (m *SessionManager) Validate(token string) (Session, error) {
	if token == "" {
		return Session{}, fmt.Errorf("token is empty: %w", domain.ErrUnauthorized)
	}

	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithIssuer(m.issuer))
	if err != nil {
		return Session{}, fmt.Errorf("parse token: %w: %w", domain.ErrUnauthorized, err)
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid {
		return Session{}, fmt.Errorf("invalid token claims: %w", domain.ErrUnauthorized)
	}
	if claims.Subject == "" || claims.ID == "" {
		return Session{}, fmt.Errorf("token without subject or id: %w", domain.ErrUnauthorized)
	}

	s := Session{
		ID:     claims.ID,
		UserID: claims.Subject,
		Role:   domain.UserRole(claims.Role),
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// HashToken computes the SHA-256 hash of a token and returns it as a hex string.
// Session records are keyed by this hash, never by the raw token.
func HashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}
