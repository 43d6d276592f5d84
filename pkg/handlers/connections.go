package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bi/pkg/auth"
	"github.com/ekaya-inc/ekaya-bi/pkg/models"
	"github.com/ekaya-inc/ekaya-bi/pkg/services"
)

// CreateConnectionRequest for POST /api/connections.
type CreateConnectionRequest struct {
	Name             string          `json:"name"`
	Provider         models.Provider `json:"provider"`
	ConnectionString string          `json:"connectionString"`
}

// TestConnectionRequest for POST /api/connections/test.
type TestConnectionRequest struct {
	Provider         models.Provider `json:"provider"`
	ConnectionString string          `json:"connectionString"`
}

// TestConnectionResponse is returned when the test query succeeded.
type TestConnectionResponse struct {
	OK bool `json:"ok"`
}

// ConnectionsHandler handles connection registration.
type ConnectionsHandler struct {
	connections services.ConnectionService
	query       services.QueryService
	logger      *zap.Logger
}

func NewConnectionsHandler(connections services.ConnectionService, query services.QueryService, logger *zap.Logger) *ConnectionsHandler {
	return &ConnectionsHandler{
		connections: connections,
		query:       query,
		logger:      logger,
	}
}

// RegisterRoutes registers the connection routes on mux behind authMiddleware.
func (h *ConnectionsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/connections", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("POST /api/connections", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("POST /api/connections/test", authMiddleware.RequireAuth(h.Test))
}

// List handles GET /api/connections.
func (h *ConnectionsHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.connections.List(r.Context())
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeOK(w, list, h.logger)
}

// Create handles POST /api/connections. The connection is tested before it
// is stored.
func (h *ConnectionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateConnectionRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	dto, err := h.connections.Create(r.Context(), req.Name, req.Provider, req.ConnectionString)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeOK(w, dto, h.logger)
}

// Test handles POST /api/connections/test.
func (h *ConnectionsHandler) Test(w http.ResponseWriter, r *http.Request) {
	var req TestConnectionRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	if err := h.query.TestConnection(r.Context(), req.Provider, req.ConnectionString); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeOK(w, TestConnectionResponse{OK: true}, h.logger)
}
