package token

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIssueAndValidate(t *testing.T) {
	svc := NewService("test-secret-123", time.Hour)

	tok, err := svc.Issue("amy@example.com", RolePatient)
	assert.NoError(t, err)
	assert.NotEmpty(t, tok)

	assert.NoError(t, svc.Validate(tok, RolePatient))

	id, err := svc.IdentifierOf(tok)
	assert.NoError(t, err)
	assert.Equal(t, "amy@example.com", id)
}

func TestValidateWrongRole(t *testing.T) {
	svc := NewService("test-secret-123", time.Hour)

	tok, err := svc.Issue("admin1", RoleAdmin)
	assert.NoError(t, err)

	err = svc.Validate(tok, RoleDoctor)
	assert.True(t, errors.Is(err, ErrWrongRole))

	// The role check never loosens: a doctor token is not a patient token.
	docTok, _ := svc.Issue("doc@clinic.example", RoleDoctor)
	assert.Error(t, svc.Validate(docTok, RolePatient))
}

func TestValidateExpired(t *testing.T) {
	svc := NewService("test-secret-123", -time.Minute)

	tok, err := svc.Issue("amy@example.com", RolePatient)
	assert.NoError(t, err)

	err = svc.Validate(tok, RolePatient)
	assert.True(t, errors.Is(err, ErrExpiredToken))

	_, err = svc.IdentifierOf(tok)
	assert.Error(t, err)
}

func TestValidateGarbage(t *testing.T) {
	svc := NewService("test-secret-123", time.Hour)

	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		assert.True(t, errors.Is(svc.Validate(tok, RolePatient), ErrInvalidToken))
	}
}

func TestValidateForeignSignature(t *testing.T) {
	svc := NewService("test-secret-123", time.Hour)
	other := NewService("different-secret", time.Hour)

	tok, err := other.Issue("amy@example.com", RolePatient)
	assert.NoError(t, err)

	assert.True(t, errors.Is(svc.Validate(tok, RolePatient), ErrInvalidToken))
}
