package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bi/pkg/auth"
	"github.com/ekaya-inc/ekaya-bi/pkg/models"
	"github.com/ekaya-inc/ekaya-bi/pkg/services"
)

// QueryHandler runs analyst SQL and generated chart, distinct and KPI queries.
type QueryHandler struct {
	connections services.ConnectionService
	query       services.QueryService
	logger      *zap.Logger
}

func NewQueryHandler(connections services.ConnectionService, query services.QueryService, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{
		connections: connections,
		query:       query,
		logger:      logger,
	}
}

func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/query/execute", authMiddleware.RequireAuth(h.Execute))
	mux.HandleFunc("POST /api/query/chart", authMiddleware.RequireAuth(h.Chart))
	mux.HandleFunc("POST /api/query/distinct", authMiddleware.RequireAuth(h.Distinct))
	mux.HandleFunc("POST /api/query/kpi", authMiddleware.RequireAuth(h.Kpi))
}

// Execute handles POST /api/query/execute.
func (h *QueryHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req models.ExecuteQueryRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}
	def, ok := resolveConnection(w, r, h.connections, req.ConnectionID, h.logger)
	if !ok {
		return
	}

	resp, err := h.query.ExecuteSelect(r.Context(), def, req.SQL)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeOK(w, resp, h.logger)
}

// Chart handles POST /api/query/chart and responds with the result rows.
func (h *QueryHandler) Chart(w http.ResponseWriter, r *http.Request) {
	var req models.ChartQueryRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}
	def, ok := resolveConnection(w, r, h.connections, req.ConnectionID, h.logger)
	if !ok {
		return
	}

	resp, err := h.query.Chart(r.Context(), def, &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeOK(w, resp.Rows, h.logger)
}

// Distinct handles POST /api/query/distinct.
func (h *QueryHandler) Distinct(w http.ResponseWriter, r *http.Request) {
	var req models.DistinctValuesRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}
	def, ok := resolveConnection(w, r, h.connections, req.ConnectionID, h.logger)
	if !ok {
		return
	}

	resp, err := h.query.DistinctValues(r.Context(), def, &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeOK(w, resp, h.logger)
}

// Kpi handles POST /api/query/kpi.
func (h *QueryHandler) Kpi(w http.ResponseWriter, r *http.Request) {
	var req models.KpiQueryRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}
	def, ok := resolveConnection(w, r, h.connections, req.ConnectionID, h.logger)
	if !ok {
		return
	}

	resp, err := h.query.Kpi(r.Context(), def, &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeOK(w, resp, h.logger)
}
