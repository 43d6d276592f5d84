package auth

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// FailureRecorder receives rejected requests for the security audit trail.
type FailureRecorder interface {
	LogAuthFailure(r *http.Request, reason string)
}

// Middleware guards handlers with bearer token validation.
// A Middleware built with a nil AuthService lets every request through.
type Middleware struct {
	authService AuthService
	recorder    FailureRecorder
	logger      *zap.Logger
}

func NewMiddleware(authService AuthService, recorder FailureRecorder, logger *zap.Logger) *Middleware {
	return &Middleware{
		authService: authService,
		recorder:    recorder,
		logger:      logger,
	}
}

// Enabled reports whether requests are validated.
func (m *Middleware) Enabled() bool {
	return m.authService != nil
}

// RequireAuth validates the token and puts its claims in the request context.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	if !m.Enabled() {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		claims, token, err := m.authService.ValidateRequest(r)
		if err != nil {
			if m.recorder != nil {
				m.recorder.LogAuthFailure(r, err.Error())
			}
			m.unauthorized(w, "Authentication required")
			return
		}
		next(w, r.WithContext(WithClaims(r.Context(), claims, token)))
	}
}

func (m *Middleware) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="ekaya-bi"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": message,
	})
}
