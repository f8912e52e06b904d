package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens_RoundTrip(t *testing.T) {
	tokens := NewTokens([]byte("secret"), time.Hour)

	raw, exp, err := tokens.Issue(7, "ana@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	id, err := tokens.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
}

func TestTokens_Expired(t *testing.T) {
	tokens := NewTokens([]byte("secret"), time.Minute)
	issuedAt := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return issuedAt }

	raw, _, err := tokens.Issue(7, "ana@example.com")
	require.NoError(t, err)

	tokens.now = func() time.Time { return issuedAt.Add(2 * time.Minute) }
	_, err = tokens.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_WrongSecret(t *testing.T) {
	raw, _, err := NewTokens([]byte("secret"), time.Hour).Issue(7, "ana@example.com")
	require.NoError(t, err)

	_, err = NewTokens([]byte("other"), time.Hour).Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_Garbage(t *testing.T) {
	_, err := NewTokens([]byte("secret"), time.Hour).Verify("not-a-jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestHashAPIKey(t *testing.T) {
	a := HashAPIKey([]byte("pepper"), "key")
	b := HashAPIKey([]byte("pepper"), "key")
	c := HashAPIKey([]byte("other"), "key")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestAPIKeyInfo_HasScope(t *testing.T) {
	k := &APIKeyInfo{Scopes: []string{"read", ScopeAdmin}}
	assert.True(t, k.HasScope(ScopeAdmin))
	assert.False(t, k.HasScope("write"))
}
