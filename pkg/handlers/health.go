package handlers

import (
	"net/http"
	"os"
	"runtime"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bi/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-bi/pkg/config"
)

// PingResponse contains service status and version information.
type PingResponse struct {
	Status      string                   `json:"status"`
	Version     string                   `json:"version"`
	Service     string                   `json:"service"`
	GoVersion   string                   `json:"go_version"`
	Hostname    string                   `json:"hostname"`
	Environment string                   `json:"environment"`
	Adapters    []datasource.AdapterInfo `json:"adapters"`
}

// HealthHandler handles health check and ping endpoints.
type HealthHandler struct {
	cfg     *config.Config
	factory datasource.ConnectionFactory
	logger  *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. factory reports the
// compiled-in adapters on /ping.
func NewHealthHandler(cfg *config.Config, factory datasource.ConnectionFactory, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, factory: factory, logger: logger}
}

// RegisterRoutes registers the health handler's routes on the given mux.
// They are never behind auth.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ping", h.Ping)
}

// Health handles GET /health requests.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ping handles GET /ping requests.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	hostname, err := os.Hostname()
	if err != nil {
		http.Error(w, "failed to get hostname", http.StatusInternalServerError)
		return
	}

	adapters := []datasource.AdapterInfo{}
	if h.factory != nil {
		adapters = append(adapters, h.factory.ListAdapters()...)
	}

	response := PingResponse{
		Status:      "ok",
		Version:     h.cfg.Version,
		Service:     "ekaya-bi",
		GoVersion:   runtime.Version(),
		Hostname:    hostname,
		Environment: h.cfg.Env,
		Adapters:    adapters,
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}
