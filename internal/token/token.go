// Package token issues and verifies HS256-signed bearer tokens that carry a
// username as their subject.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/catsapi/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the decoded token payload. Only "sub" and "exp" are required;
// any other key is an opaque extension claim.
type Claims map[string]any

// Subject returns the "sub" claim or an empty string.
func (c Claims) Subject() string {
	sub, err := jwt.MapClaims(c).GetSubject()
	if err != nil {
		return ""
	}
	return sub
}

// ExpiresAt returns the "exp" claim or the zero time.
func (c Claims) ExpiresAt() time.Time {
	return numericDate(jwt.MapClaims(c).GetExpirationTime())
}

// IssuedAt returns the "iat" claim or the zero time.
func (c Claims) IssuedAt() time.Time {
	return numericDate(jwt.MapClaims(c).GetIssuedAt())
}

func numericDate(d *jwt.NumericDate, err error) time.Time {
	if err != nil || d == nil {
		return time.Time{}
	}
	return d.Time
}

// Service signs and validates tokens with a symmetric key.
type Service struct {
	key []byte
	now func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for issuing and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService returns a Service signing with key.
func NewService(key []byte, opts ...Option) *Service {
	s := &Service{key: key, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue signs a token for subject valid for ttl. Extra claims are copied into
// the payload but cannot replace "sub", "iat" or "exp".
func (s *Service) Issue(subject string, ttl time.Duration, extra map[string]any) (string, error) {
	if subject == "" {
		return "", errors.New("token subject must not be empty")
	}

	now := s.now()
	claims := jwt.MapClaims{}
	for k, v := range extra {
		claims[k] = v
	}
	claims["sub"] = subject
	claims["iat"] = jwt.NewNumericDate(now)
	claims["exp"] = jwt.NewNumericDate(now.Add(ttl))

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify returns the token subject. ok is false for malformed, badly signed,
// expired or subject-less tokens, without saying which.
func (s *Service) Verify(tokenString string) (subject string, ok bool) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return "", false
	}
	return claims.Subject(), true
}

// Inspect returns the full payload of a valid token.
func (s *Service) Inspect(tokenString string) (Claims, bool) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, false
	}
	return claims, true
}

func (s *Service) parse(tokenString string) (Claims, error) {
	claims := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, common.ErrInvalidToken
	}

	c := Claims(claims)
	if c.Subject() == "" {
		return nil, common.ErrInvalidToken
	}
	return c, nil
}
