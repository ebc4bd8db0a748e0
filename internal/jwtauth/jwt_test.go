package jwtauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiscus/pkg/domain"
	dErrors "fiscus/pkg/domain-errors"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := New("test-signing-key")

	token, err := svc.GenerateToken(domain.Caller("central-government"), time.Hour)
	require.NoError(t, err)

	caller, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, domain.Caller("central-government"), caller)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := New("test-signing-key")

	token, err := svc.GenerateToken(domain.Caller("central-government"), -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func TestValidateToken_WrongKey(t *testing.T) {
	minted := New("key-one")
	validating := New("key-two")

	token, err := minted.GenerateToken(domain.Caller("central-government"), time.Hour)
	require.NoError(t, err)

	_, err = validating.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := New("test-signing-key")
	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeUnauthorized))
}
