// Package auth wraps the hosted authentication provider behind a single
// capability: resolve the current request's principal and role. Identity,
// OAuth, and session management all live with the provider; nothing here
// issues or stores credentials.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"portfolio-api/internal/config"
)

// ErrUnauthenticated is returned when a session token is missing, expired,
// or rejected by the provider.
var ErrUnauthenticated = errors.New("unauthenticated")

// Principal is the provider's answer for a verified session.
type Principal struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// IsAdmin reports whether the principal carries the admin role,
// case-insensitively.
func (p Principal) IsAdmin() bool {
	return strings.EqualFold(p.Role, "admin")
}

// Authenticator resolves a bearer session token to a principal.
type Authenticator interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

// HTTPAuthenticator verifies tokens against the provider's verify endpoint.
type HTTPAuthenticator struct {
	verifyURL string
	client    *http.Client
}

func NewHTTPAuthenticator(cfg config.AuthConfig) *HTTPAuthenticator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPAuthenticator{
		verifyURL: cfg.VerifyURL,
		client:    &http.Client{Timeout: timeout},
	}
}

// Verify asks the provider whether the token names a live session.
func (a *HTTPAuthenticator) Verify(ctx context.Context, token string) (*Principal, error) {
	if a.verifyURL == "" || token == "" {
		return nil, ErrUnauthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.verifyURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthenticated
	default:
		return nil, fmt.Errorf("auth provider returned status %d", resp.StatusCode)
	}

	var principal Principal
	if err := json.NewDecoder(resp.Body).Decode(&principal); err != nil {
		return nil, fmt.Errorf("failed to decode verify response: %w", err)
	}
	return &principal, nil
}

// StaticAuthenticator resolves tokens from a fixed table. Used in tests and
// local development without a provider.
type StaticAuthenticator struct {
	Tokens map[string]Principal
}

func (a *StaticAuthenticator) Verify(_ context.Context, token string) (*Principal, error) {
	if p, ok := a.Tokens[token]; ok {
		return &p, nil
	}
	return nil, ErrUnauthenticated
}

type principalKey struct{}

// WithPrincipal stores the verified principal on the request context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal set by the auth middleware, if any.
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok
}

// BearerToken extracts the session token from an Authorization header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
