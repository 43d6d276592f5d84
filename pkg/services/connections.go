package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bi/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-bi/pkg/logging"
	"github.com/ekaya-inc/ekaya-bi/pkg/models"
	"github.com/ekaya-inc/ekaya-bi/pkg/repositories"
)

// ConnectionService registers target databases and resolves them by id.
type ConnectionService interface {
	// List returns all connections ordered by name, without connection strings.
	List(ctx context.Context) ([]models.ConnectionDto, error)

	// Create tests the connection string and stores a new definition.
	Create(ctx context.Context, name string, provider models.Provider, connectionString string) (*models.ConnectionDto, error)

	// Get returns the full definition or apperrors.ErrNotFound.
	Get(ctx context.Context, id string) (*models.ConnectionDefinition, error)
}

type connectionService struct {
	store  repositories.ConnectionStore
	query  QueryService
	logger *zap.Logger
}

// NewConnectionService creates a connection service. query is used to test
// connection strings before they are stored.
func NewConnectionService(store repositories.ConnectionStore, query QueryService, logger *zap.Logger) ConnectionService {
	return &connectionService{
		store:  store,
		query:  query,
		logger: logger.Named("connections"),
	}
}

var _ ConnectionService = (*connectionService)(nil)

func (s *connectionService) List(ctx context.Context) ([]models.ConnectionDto, error) {
	defs, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.ConnectionDto, len(defs))
	for i := range defs {
		out[i] = defs[i].ToDto()
	}
	return out, nil
}

func (s *connectionService) Create(ctx context.Context, name string, provider models.Provider, connectionString string) (*models.ConnectionDto, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.InvalidInput("Name is required.")
	}
	if strings.TrimSpace(connectionString) == "" {
		return nil, apperrors.InvalidInput("Connection string is required.")
	}
	if !provider.IsValid() {
		return nil, apperrors.InvalidInput("Unsupported provider.")
	}

	if err := s.query.TestConnection(ctx, provider, connectionString); err != nil {
		s.logger.Info("Connection test failed",
			zap.String("name", name),
			zap.String("provider", provider.String()),
			zap.String("connection_string", logging.SanitizeConnectionString(connectionString)),
			zap.String("error", logging.SanitizeError(err)))
		return nil, err
	}

	def := &models.ConnectionDefinition{
		ID:               models.NewConnectionID(),
		Name:             name,
		Provider:         provider,
		ConnectionString: connectionString,
	}
	if err := s.store.Upsert(ctx, def); err != nil {
		return nil, err
	}

	s.logger.Info("Connection created",
		zap.String("connection_id", def.ID),
		zap.String("name", def.Name),
		zap.String("provider", provider.String()))

	dto := def.ToDto()
	return &dto, nil
}

func (s *connectionService) Get(ctx context.Context, id string) (*models.ConnectionDefinition, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.InvalidInput("connectionId is required.")
	}
	return s.store.Get(ctx, id)
}
