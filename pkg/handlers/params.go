package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bi/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-bi/pkg/models"
	"github.com/ekaya-inc/ekaya-bi/pkg/services"
)

// resolveConnection loads the connection named by id. It writes the error
// response and returns false when id is blank or unknown.
func resolveConnection(
	w http.ResponseWriter,
	r *http.Request,
	connections services.ConnectionService,
	id string,
	logger *zap.Logger,
) (*models.ConnectionDefinition, bool) {
	if strings.TrimSpace(id) == "" {
		writeServiceError(w, apperrors.InvalidInput("connectionId is required."), logger)
		return nil, false
	}
	def, err := connections.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, logger)
		return nil, false
	}
	return def, true
}
