package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/ignite/newsletter/internal/domain"
	"github.com/ignite/newsletter/internal/newsletter"
	"github.com/ignite/newsletter/internal/subscriptions"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	subscriptions *subscriptions.Service
	newsletter    *newsletter.Service
}

// NewHandlers creates a new Handlers instance
func NewHandlers(subs *subscriptions.Service, news *newsletter.Service) *Handlers {
	return &Handlers{
		subscriptions: subs,
		newsletter:    news,
	}
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// HandleSubscribe accepts a signup form and registers a pending subscriber.
func (h *Handlers) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	err := h.subscriptions.Subscribe(r.Context(), r.PostForm.Get("email"), r.PostForm.Get("name"))
	var ve *domain.ValidationError
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]string{"status": "pending_confirmation"})
	case errors.As(err, &ve):
		respondError(w, http.StatusBadRequest, ve.Error())
	default:
		log.Printf("[api] subscribe failed: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// HandleConfirm resolves an emailed confirmation link.
func (h *Handlers) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	tok := r.URL.Query().Get("token")
	if tok == "" {
		respondError(w, http.StatusBadRequest, "missing token parameter")
		return
	}

	err := h.subscriptions.Confirm(r.Context(), tok)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]string{"status": "confirmed"})
	case errors.Is(err, subscriptions.ErrUnknownToken):
		respondError(w, http.StatusUnauthorized, "unknown subscription token")
	default:
		log.Printf("[api] confirm failed: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// HandlePublishNewsletter fans an issue out to all confirmed subscribers.
// The route is wrapped by the Basic-Auth middleware; by the time this runs
// the request carries an authenticated user id.
func (h *Handlers) HandlePublishNewsletter(w http.ResponseWriter, r *http.Request) {
	var issue newsletter.Issue
	if err := json.NewDecoder(r.Body).Decode(&issue); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sent, err := h.newsletter.Publish(r.Context(), issue)
	if err != nil {
		log.Printf("[api] newsletter publish failed after %d sends: %v", sent, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"sent": sent})
}

// HealthCheck returns the health status of the API
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now(),
	})
}
