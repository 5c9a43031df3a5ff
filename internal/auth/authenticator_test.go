package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-api/internal/config"
)

func TestStaticAuthenticator(t *testing.T) {
	a := &StaticAuthenticator{Tokens: map[string]Principal{
		"tok-admin": {UserID: "u1", Role: "admin"},
		"tok-user":  {UserID: "u2", Role: "user"},
	}}

	p, err := a.Verify(context.Background(), "tok-admin")
	require.NoError(t, err)
	assert.True(t, p.IsAdmin())

	p, err = a.Verify(context.Background(), "tok-user")
	require.NoError(t, err)
	assert.False(t, p.IsAdmin())

	_, err = a.Verify(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestPrincipalIsAdminCaseInsensitive(t *testing.T) {
	assert.True(t, Principal{Role: "Admin"}.IsAdmin())
	assert.True(t, Principal{Role: "ADMIN"}.IsAdmin())
	assert.False(t, Principal{Role: "editor"}.IsAdmin())
	assert.False(t, Principal{}.IsAdmin())
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, BearerToken(req))

	req.Header.Set("Authorization", "Basic abc123")
	assert.Empty(t, BearerToken(req))

	req.Header.Set("Authorization", "Bearer some-token")
	assert.Equal(t, "some-token", BearerToken(req))
}

func TestHTTPAuthenticatorVerify(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			json.NewEncoder(w).Encode(Principal{UserID: "u1", Email: "a@b.co", Role: "admin"})
		case "Bearer bad":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer provider.Close()

	a := NewHTTPAuthenticator(config.AuthConfig{VerifyURL: provider.URL, Timeout: 2 * time.Second})

	p, err := a.Verify(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.True(t, p.IsAdmin())

	_, err = a.Verify(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = a.Verify(context.Background(), "boom")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
}
