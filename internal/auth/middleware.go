package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const userIDKey contextKey = "auth.user_id"

// UserID returns the authenticated user id stored by RequireAuth.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

// BasicAuth is HTTP Basic authentication middleware for protected routes.
type BasicAuth struct {
	store    *CredentialStore
	verifier *Verifier
	realm    string
}

// NewBasicAuth creates the middleware around a credential store and a
// verification pool.
func NewBasicAuth(store *CredentialStore, verifier *Verifier, realm string) *BasicAuth {
	return &BasicAuth{store: store, verifier: verifier, realm: realm}
}

// RequireAuth wraps next so it only runs for requests carrying valid Basic
// credentials. Every authentication failure, missing header, unknown
// username, or wrong password, produces the identical 401 challenge; only
// infrastructure faults surface as 500.
func (a *BasicAuth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			// Malformed or absent header: challenge without touching the store.
			a.challenge(w)
			return
		}

		creds, err := a.store.Lookup(r.Context(), username)
		if err != nil {
			log.Printf("[auth] credential lookup failed: %v", err)
			respondServerError(w)
			return
		}

		match, err := a.verifier.Verify(r.Context(), password, creds.PasswordHash)
		if err != nil {
			log.Printf("[auth] password verification failed: %v", err)
			respondServerError(w)
			return
		}

		// The dummy hash keeps the work identical for unknown usernames, but
		// it must never authenticate anyone.
		if !match || !creds.Known {
			a.challenge(w)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, creds.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *BasicAuth) challenge(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Basic realm=%q`, a.realm))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}

func respondServerError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
