// Package token issues and checks the signed bearer tokens that gate every
// role-protected endpoint. A token binds the principal's stable identifier
// (email for doctors and patients, username for admins) to a role at issuance;
// a token issued for one role never validates for another.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Roles recognized by the API.
const (
	RoleAdmin   = "admin"
	RoleDoctor  = "doctor"
	RolePatient = "patient"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
	ErrWrongRole    = errors.New("token role mismatch")
)

// Service signs and validates bearer tokens with an HMAC secret.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// NewService returns a token service signing with secret; issued tokens
// expire after ttl.
func NewService(secret string, ttl time.Duration) *Service {
	return &Service{secret: []byte(secret), ttl: ttl}
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issue produces a signed token bound to (identifier, role) with an embedded
// expiry.
func (s *Service) Issue(identifier, role string) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identifier,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	return t.SignedString(s.secret)
}

// Validate checks the token's structure, signature, and expiry, and that it
// was issued for expectedRole. Any failure other than expiry and role
// mismatch reports ErrInvalidToken.
func (s *Service) Validate(tokenString, expectedRole string) error {
	c, err := s.parse(tokenString)
	if err != nil {
		return err
	}
	if c.Role != expectedRole {
		return ErrWrongRole
	}
	return nil
}

// IdentifierOf returns the token's subject without checking the role.
func (s *Service) IdentifierOf(tokenString string) (string, error) {
	c, err := s.parse(tokenString)
	if err != nil {
		return "", err
	}
	return c.Subject, nil
}

func (s *Service) parse(tokenString string) (*claims, error) {
	c := &claims{}
	_, err := jwt.ParseWithClaims(tokenString, c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	return c, nil
}
