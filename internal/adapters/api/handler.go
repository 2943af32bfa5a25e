package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/poyrazK/hora/internal/core/domain"
	"github.com/poyrazK/hora/internal/core/ports"
	"github.com/poyrazK/hora/internal/infrastructure/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const serviceVersion = "0.1"

// AuthHandler handles HTTP requests for registration, login and sessions.
type AuthHandler struct {
	auth     ports.AuthService
	sessions ports.SessionService
}

// NewAuthHandler creates and returns a new AuthHandler instance.
func NewAuthHandler(auth ports.AuthService, sessions ports.SessionService) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions}
}

// RegisterRoutes registers the API routes with the provided ServeMux. The
// context bounds the lifetime of the rate limiter's background sweep.
func (h *AuthHandler) RegisterRoutes(ctx context.Context, mux *http.ServeMux) {
	// Public Routes
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /metrics", h.Metrics)
	mux.HandleFunc("GET /{$}", h.Home)

	// Middleware
	auth := AuthMiddleware(h.auth)
	limit := RateLimitMiddleware(newRateLimiter(ctx, 5, 10))

	protected := func(hf http.HandlerFunc) http.Handler {
		return VersionMiddleware(auth(hf))
	}
	limited := func(hf http.HandlerFunc) http.Handler {
		return VersionMiddleware(limit(auth(hf)))
	}

	// Protected routes (realm resolved from the credential headers)
	mux.Handle("GET /api", protected(h.Status))
	mux.Handle("HEAD /api", protected(h.Status))
	mux.Handle("POST /api/register/simple", limited(h.RegisterSimple))
	mux.Handle("POST /api/login/simple", limited(h.LoginSimple))
	mux.Handle("POST /api/user/delete", protected(h.DeleteUser))
	mux.Handle("DELETE /api/user/delete", protected(h.DeleteUser))
	mux.Handle("POST /api/session/delete", protected(h.DeleteSession))
	mux.Handle("DELETE /api/session/delete", protected(h.DeleteSession))
	mux.Handle("GET /api/session/valid", protected(h.SessionValid))
}

// Metrics handles Prometheus metrics scraping requests.
func (h *AuthHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// Home reports the service version without requiring credentials.
func (h *AuthHandler) Home(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, map[string]any{
		"version": serviceVersion,
		"status":  0,
	})
}

// Status reports API health to authenticated callers. The response echoes
// the protocol version the client negotiated, not the latest one.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, map[string]any{
		"version": VersionFrom(r.Context()),
		"status": map[string]any{
			"id":  0,
			"msg": "ALL OK",
		},
	})
}

// HealthCheck handles health check requests.
func (h *AuthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "UP"
	details := make(map[string]string)

	for name, checkErr := range h.auth.HealthCheck(r.Context()) {
		if checkErr != nil {
			status = "DEGRADED"
			details[name] = checkErr.Error()
		} else {
			details[name] = "OK"
		}
	}

	code := http.StatusOK
	if status == "DEGRADED" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":  status,
		"details": details,
	})
}

// RegisterSimple creates a user with a password credential.
func (h *AuthHandler) RegisterSimple(w http.ResponseWriter, r *http.Request) {
	realm, ok := RealmFrom(r.Context())
	if !ok {
		writeErrorCode(w, http.StatusUnauthorized, domain.CodeBadAPICredentials, "Invalid API Credentials!")
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")
	data, err := jsonParam(r, "data")
	if err != nil {
		metrics.RequestsTotal.WithLabelValues("register", "error").Inc()
		writeErrorCode(w, http.StatusBadRequest, domain.CodeInvalidRegistration, "Invalid User Information!")
		return
	}

	userID, err := h.auth.Register(r.Context(), realm, username, password, data)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues("register", "error").Inc()
		writeDomainError(w, err)
		return
	}

	metrics.RequestsTotal.WithLabelValues("register", "ok").Inc()
	writeSuccess(w, map[string]any{
		"userid": userID,
	})
}

// LoginSimple verifies a password and opens a session. Unknown usernames
// and wrong passwords produce an identical response.
func (h *AuthHandler) LoginSimple(w http.ResponseWriter, r *http.Request) {
	realm, ok := RealmFrom(r.Context())
	if !ok {
		writeErrorCode(w, http.StatusUnauthorized, domain.CodeBadAPICredentials, "Invalid API Credentials!")
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")
	tiny := r.FormValue("tiny") == "1"
	data, err := jsonParam(r, "data")
	if err != nil {
		metrics.RequestsTotal.WithLabelValues("login", "error").Inc()
		writeErrorCode(w, http.StatusBadRequest, domain.CodeInvalidLogin, "Invalid Login Information")
		return
	}

	result, err := h.auth.Login(r.Context(), realm, username, password, data, tiny)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues("login", "error").Inc()
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeErrorCode(w, http.StatusBadRequest, domain.CodeInvalidLogin, "Invalid Login Information")
		case errors.Is(err, domain.ErrUnknownUser):
			metrics.AuthFailures.WithLabelValues("unknown_user").Inc()
			writeDomainError(w, err)
		case errors.Is(err, domain.ErrBadCredential):
			metrics.AuthFailures.WithLabelValues("bad_password").Inc()
			writeDomainError(w, err)
		default:
			writeDomainError(w, err)
		}
		return
	}

	metrics.RequestsTotal.WithLabelValues("login", "ok").Inc()
	metrics.SessionsCreated.Inc()
	writeSuccess(w, map[string]any{
		"user":    result.UserID,
		"session": result.SessionID,
		"data":    result.Data,
	})
}

// DeleteUser removes a user and cascades over their sessions.
func (h *AuthHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	realm, ok := RealmFrom(r.Context())
	if !ok {
		writeErrorCode(w, http.StatusUnauthorized, domain.CodeBadAPICredentials, "Invalid API Credentials!")
		return
	}

	userID := r.FormValue("id")
	if userID == "" {
		writeErrorCode(w, http.StatusBadRequest, domain.CodeUnknownTarget, "User does not exist in the system")
		return
	}

	deleted, err := h.auth.DeleteUser(r.Context(), realm, userID)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues("user_delete", "error").Inc()
		writeDomainError(w, err)
		return
	}
	if !deleted {
		metrics.RequestsTotal.WithLabelValues("user_delete", "error").Inc()
		writeErrorCode(w, http.StatusNotFound, domain.CodeUnknownTarget, "User does not exist in the system")
		return
	}

	metrics.RequestsTotal.WithLabelValues("user_delete", "ok").Inc()
	writeSuccess(w, map[string]any{
		"deleted": true,
	})
}

// DeleteSession revokes a session. Revoking an unknown or already revoked
// session reports deleted:false, never an error.
func (h *AuthHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	realm, ok := RealmFrom(r.Context())
	if !ok {
		writeErrorCode(w, http.StatusUnauthorized, domain.CodeBadAPICredentials, "Invalid API Credentials!")
		return
	}

	sessionID := r.FormValue("session_id")
	deleted, err := h.sessions.Revoke(r.Context(), sessionID, realm.ID)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues("session_delete", "error").Inc()
		writeDomainError(w, err)
		return
	}

	if deleted {
		metrics.SessionsRevoked.Inc()
	}
	metrics.RequestsTotal.WithLabelValues("session_delete", "ok").Inc()
	writeSuccess(w, map[string]any{
		"deleted": deleted,
	})
}

// SessionValid is the fast-path liveness check; it answers from the cache
// only.
func (h *AuthHandler) SessionValid(w http.ResponseWriter, r *http.Request) {
	if _, ok := RealmFrom(r.Context()); !ok {
		writeErrorCode(w, http.StatusUnauthorized, domain.CodeBadAPICredentials, "Invalid API Credentials!")
		return
	}

	start := time.Now()
	valid, err := h.sessions.Check(r.Context(), r.FormValue("id"))
	metrics.SessionCheckDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RequestsTotal.WithLabelValues("session_valid", "error").Inc()
		writeDomainError(w, err)
		return
	}

	metrics.RequestsTotal.WithLabelValues("session_valid", "ok").Inc()
	v := 0
	if valid {
		v = 1
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"v": v,
	})
}

// jsonParam parses an optional JSON-document form parameter, defaulting to
// an empty object.
func jsonParam(r *http.Request, name string) (json.RawMessage, error) {
	raw := r.FormValue(name)
	if raw == "" {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid([]byte(raw)) {
		return nil, errors.New("parameter " + name + " must be a JSON document")
	}
	return json.RawMessage(raw), nil
}
