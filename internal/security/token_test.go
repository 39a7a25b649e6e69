package security

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTokenIssuerRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	issuer, err := NewTokenIssuer("super-secret", 24*time.Hour, fixedClock(now))
	require.NoError(t, err)

	raw, err := issuer.Issue("acc-1", true)
	require.NoError(t, err)

	id, err := issuer.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", id.AccountID)
	assert.True(t, id.IsAdmin)
	assert.True(t, now.Equal(id.IssuedAt))
	assert.True(t, now.Add(24*time.Hour).Equal(id.ExpiresAt))
}

func TestTokenIssuerFailuresAreIndistinguishable(t *testing.T) {
	now := time.Now()
	issuer, err := NewTokenIssuer("right-secret", time.Hour, fixedClock(now))
	require.NoError(t, err)
	other, err := NewTokenIssuer("wrong-secret", time.Hour, fixedClock(now))
	require.NoError(t, err)
	past, err := NewTokenIssuer("right-secret", time.Hour, fixedClock(now.Add(-2*time.Hour)))
	require.NoError(t, err)

	forged, err := other.Issue("acc", false)
	require.NoError(t, err)
	expired, err := past.Issue("acc", false)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "acc"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"bad signature": forged,
		"expired":       expired,
		"malformed":     "not.a.jwt",
		"empty":         "",
		"alg none":      unsigned,
		"truncated":     forged[:strings.LastIndex(forged, ".")],
	} {
		_, err := issuer.Verify(raw)
		assert.Equal(t, ErrInvalidToken, err, name)
	}
}

func TestNewTokenIssuerValidation(t *testing.T) {
	_, err := NewTokenIssuer("  ", time.Hour, nil)
	assert.Error(t, err)
	_, err = NewTokenIssuer("secret", 0, nil)
	assert.Error(t, err)

	issuer, err := NewTokenIssuer("secret", 7*24*time.Hour, nil)
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, issuer.TTL())
}
