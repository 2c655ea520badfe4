package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/Mikaelbfaa/cardshop/internal/auth"
)

// identityKey is the context key for the authenticated identity.
type identityKey struct{}

// identityFrom extracts the authenticated identity from the context. The
// second return is false on routes that skipped Authenticate.
func identityFrom(ctx context.Context) (*auth.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*auth.Identity)
	return id, ok
}

// Authenticate verifies the Authorization bearer token and stores the
// resulting identity in the request context. Missing or unverifiable tokens
// are 401; role checks are a separate concern (RequireAdmin).
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(w, http.StatusUnauthorized, "missing or malformed authorization header")
			return
		}

		id, err := h.tokens.Verify(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects authenticated non-admin subjects with 403. It must be
// mounted after Authenticate.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityFrom(r.Context())
		if !ok {
			respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !id.IsAdmin() {
			respondError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// resolveSubjectUser returns the user whose resources the request targets:
// the caller themselves, or the userId query override for admins. A
// cross-user override without the admin role is a 403; an override naming an
// unknown user is a 404.
func (h *Handler) resolveSubjectUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := identityFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return "", false
	}

	target := r.URL.Query().Get("userId")
	if target == "" || target == id.UserID {
		return id.UserID, true
	}
	if !id.IsAdmin() {
		respondError(w, http.StatusForbidden, "cannot access another user's resources")
		return "", false
	}

	if _, err := h.users.GetByID(r.Context(), target); err != nil {
		respondDomainError(w, r, err)
		return "", false
	}
	return target, true
}
