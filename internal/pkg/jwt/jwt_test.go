package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignParseRoundTrip(t *testing.T) {
	SetSecret("test-secret")
	t.Cleanup(func() { SetSecret(defaultSecret) })

	token, err := Sign("operator", time.Minute)
	require.NoError(t, err)

	claims, err := Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "operator", claims.Subject)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	token, err := Sign("operator", -time.Minute)
	require.NoError(t, err)

	_, err = Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	SetSecret("secret-a")
	t.Cleanup(func() { SetSecret(defaultSecret) })

	token, err := Sign("operator", time.Minute)
	require.NoError(t, err)

	SetSecret("secret-b")
	_, err = Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("not-a-token")
	assert.Error(t, err)
}
