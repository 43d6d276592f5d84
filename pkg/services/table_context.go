package services

import (
	"context"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ekaya-inc/ekaya-bi/pkg/logging"
	"github.com/ekaya-inc/ekaya-bi/pkg/models"
)

const (
	maxContextTables  = 2
	maxContextColumns = 12
	contextSampleRows = 5
)

// TableContextService gathers columns and sample rows of the tables a chat
// message mentions. It only assembles data; it never talks to a model.
type TableContextService interface {
	// BuildContext returns one TableContext per mentioned table that exists,
	// at most two, in the order they were mentioned.
	BuildContext(ctx context.Context, def *models.ConnectionDefinition, mentioned []string) ([]models.TableContext, error)
}

type tableContextService struct {
	schema SchemaService
	query  QueryService
	logger *zap.Logger
}

func NewTableContextService(schema SchemaService, query QueryService, logger *zap.Logger) TableContextService {
	return &tableContextService{
		schema: schema,
		query:  query,
		logger: logger.Named("table_context"),
	}
}

var _ TableContextService = (*tableContextService)(nil)

func (s *tableContextService) BuildContext(ctx context.Context, def *models.ConnectionDefinition, mentioned []string) ([]models.TableContext, error) {
	if len(mentioned) == 0 {
		return []models.TableContext{}, nil
	}

	available, err := s.schema.ListTables(ctx, def)
	if err != nil {
		return nil, err
	}

	var tables []string
	for _, name := range mentioned {
		if len(tables) == maxContextTables {
			break
		}
		if slices.Contains(available, name) && !slices.Contains(tables, name) {
			tables = append(tables, name)
		}
	}

	results := make([]models.TableContext, len(tables))
	g, gctx := errgroup.WithContext(ctx)
	for i, table := range tables {
		g.Go(func() error {
			tc, err := s.describe(gctx, def, table)
			if err != nil {
				return err
			}
			results[i] = *tc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *tableContextService) describe(ctx context.Context, def *models.ConnectionDefinition, table string) (*models.TableContext, error) {
	columns, err := s.schema.ListColumns(ctx, def, table)
	if err != nil {
		return nil, err
	}
	if len(columns) > maxContextColumns {
		columns = columns[:maxContextColumns]
	}

	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}

	sample, err := s.query.SampleTable(ctx, def, table, names, contextSampleRows)
	if err != nil {
		// A missing sample still leaves useful column information.
		s.logger.Warn("Failed to sample table",
			zap.String("connection_id", def.ID),
			zap.String("table", table),
			zap.String("error", logging.SanitizeError(err)))
		sample = []*models.Row{}
	}

	return &models.TableContext{Table: table, Columns: columns, SampleRows: sample}, nil
}
