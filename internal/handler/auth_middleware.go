package handler

import (
	"errors"
	"net/http"

	"portfolio-api/internal/auth"
	"portfolio-api/internal/ids"
)

// AuthMiddleware verifies bearer tokens and feeds failures to the IDS, so
// repeated bad tokens raise the caller's threat score like any other failed
// login.
type AuthMiddleware struct {
	authenticator auth.Authenticator
	tracker       *ids.Tracker
}

func NewAuthMiddleware(authenticator auth.Authenticator, tracker *ids.Tracker) *AuthMiddleware {
	return &AuthMiddleware{authenticator: authenticator, tracker: tracker}
}

// RequireUser rejects requests without a valid token.
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := m.verify(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
	})
}

// RequireAdmin rejects requests without a valid admin token.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := m.verify(w, r)
		if !ok {
			return
		}
		if !principal.IsAdmin() {
			respondWithError(w, http.StatusForbidden,
				errors.New("forbidden"), "Admin access required")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
	})
}

func (m *AuthMiddleware) verify(w http.ResponseWriter, r *http.Request) (*auth.Principal, bool) {
	token := auth.BearerToken(r)
	if token == "" {
		respondWithError(w, http.StatusUnauthorized,
			errors.New("missing token"), "Authentication required")
		return nil, false
	}

	principal, err := m.authenticator.Verify(r.Context(), token)
	if err != nil {
		m.tracker.TrackFailedLogin(ClientIP(r), "", r.UserAgent())
		respondWithError(w, http.StatusUnauthorized,
			errors.New("invalid token"), "Authentication required")
		return nil, false
	}
	return principal, true
}
