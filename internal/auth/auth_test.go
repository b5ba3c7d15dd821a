package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyRoundTrip(t *testing.T) {
	v := NewVerifier("secret", "trashtrackr")
	tok, err := v.Issue(Principal{UID: "u1", DisplayName: "Asha", Email: "asha@example.com"}, time.Minute)
	require.NoError(t, err)

	p, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UID)
	assert.Equal(t, "Asha", p.DisplayName)
	assert.Equal(t, "asha@example.com", p.Email)
	assert.Empty(t, p.PhotoURL)
}

func TestVerifyRejects(t *testing.T) {
	good := NewVerifier("secret", "trashtrackr")

	expired, err := good.Issue(Principal{UID: "u1"}, -time.Minute)
	require.NoError(t, err)
	otherKey, err := NewVerifier("other", "trashtrackr").Issue(Principal{UID: "u1"}, time.Minute)
	require.NoError(t, err)
	otherIssuer, err := NewVerifier("secret", "someone-else").Issue(Principal{UID: "u1"}, time.Minute)
	require.NoError(t, err)
	noSubject, err := good.Issue(Principal{}, time.Minute)
	require.NoError(t, err)

	tests := map[string]string{
		"empty":        "",
		"garbage":      "not-a-jwt",
		"expired":      expired,
		"wrong key":    otherKey,
		"wrong issuer": otherIssuer,
		"no subject":   noSubject,
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := good.Verify(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	t.Run("no secret configured", func(t *testing.T) {
		tok, err := good.Issue(Principal{UID: "u1"}, time.Minute)
		require.NoError(t, err)
		_, err = NewVerifier("", "").Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestMiddleware(t *testing.T) {
	v := NewVerifier("secret", "")
	tok, err := v.Issue(Principal{UID: "u1"}, time.Minute)
	require.NoError(t, err)

	var got *Principal
	h := v.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.UID)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Nil(t, got)
}
