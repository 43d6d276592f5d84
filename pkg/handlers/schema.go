package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bi/pkg/auth"
	"github.com/ekaya-inc/ekaya-bi/pkg/models"
	"github.com/ekaya-inc/ekaya-bi/pkg/services"
)

// SchemaHandler exposes table and column catalogs and table context.
type SchemaHandler struct {
	connections  services.ConnectionService
	schema       services.SchemaService
	tableContext services.TableContextService
	logger       *zap.Logger
}

func NewSchemaHandler(
	connections services.ConnectionService,
	schema services.SchemaService,
	tableContext services.TableContextService,
	logger *zap.Logger,
) *SchemaHandler {
	return &SchemaHandler{
		connections:  connections,
		schema:       schema,
		tableContext: tableContext,
		logger:       logger,
	}
}

func (h *SchemaHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/schema/tables", authMiddleware.RequireAuth(h.Tables))
	mux.HandleFunc("GET /api/schema/columns", authMiddleware.RequireAuth(h.Columns))
	mux.HandleFunc("GET /api/schema/context", authMiddleware.RequireAuth(h.Context))
}

// Tables handles GET /api/schema/tables?connectionId=
func (h *SchemaHandler) Tables(w http.ResponseWriter, r *http.Request) {
	def, ok := resolveConnection(w, r, h.connections, r.URL.Query().Get("connectionId"), h.logger)
	if !ok {
		return
	}

	names, err := h.schema.ListTables(r.Context(), def)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	tables := make([]models.TableInfo, len(names))
	for i, name := range names {
		tables[i] = models.TableInfo{Name: name}
	}
	writeOK(w, tables, h.logger)
}

// Columns handles GET /api/schema/columns?connectionId=&table=
func (h *SchemaHandler) Columns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	def, ok := resolveConnection(w, r, h.connections, q.Get("connectionId"), h.logger)
	if !ok {
		return
	}

	columns, err := h.schema.ListColumns(r.Context(), def, q.Get("table"))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeOK(w, columns, h.logger)
}

// Context handles GET /api/schema/context?connectionId=&table=a&table=b
func (h *SchemaHandler) Context(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	def, ok := resolveConnection(w, r, h.connections, q.Get("connectionId"), h.logger)
	if !ok {
		return
	}

	contexts, err := h.tableContext.BuildContext(r.Context(), def, q["table"])
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeOK(w, contexts, h.logger)
}
