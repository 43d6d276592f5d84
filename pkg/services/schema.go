package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bi/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-bi/pkg/dialect"
	"github.com/ekaya-inc/ekaya-bi/pkg/logging"
	"github.com/ekaya-inc/ekaya-bi/pkg/models"
	sqlutil "github.com/ekaya-inc/ekaya-bi/pkg/sql"
)

// SchemaService reads table and column catalogs from a registered database.
// Nothing is cached; each call opens its own connection.
type SchemaService interface {
	// ListTables returns base tables as "schema.table", ordered by schema then name.
	ListTables(ctx context.Context, def *models.ConnectionDefinition) ([]string, error)

	// ListColumns returns the columns of table in ordinal order. A table
	// without a schema is looked up in the provider's default schema.
	ListColumns(ctx context.Context, def *models.ConnectionDefinition, table string) ([]models.ColumnInfo, error)
}

type schemaService struct {
	factory datasource.ConnectionFactory
	logger  *zap.Logger
}

// NewSchemaService creates a schema service that opens connections through factory.
func NewSchemaService(factory datasource.ConnectionFactory, logger *zap.Logger) SchemaService {
	return &schemaService{
		factory: factory,
		logger:  logger.Named("schema"),
	}
}

var _ SchemaService = (*schemaService)(nil)

func (s *schemaService) ListTables(ctx context.Context, def *models.ConnectionDefinition) ([]string, error) {
	d, err := dialect.For(def.Provider)
	if err != nil {
		return nil, err
	}

	rows, err := s.query(ctx, def, d.TablesQuery(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	tables := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.Len() == 0 {
			continue
		}
		v, _ := row.Get(row.Keys()[0])
		if name, ok := stringifyValue(v); ok {
			tables = append(tables, name)
		}
	}
	return tables, nil
}

func (s *schemaService) ListColumns(ctx context.Context, def *models.ConnectionDefinition, table string) ([]models.ColumnInfo, error) {
	if err := sqlutil.EnsureValid(table, "table"); err != nil {
		return nil, err
	}
	d, err := dialect.For(def.Provider)
	if err != nil {
		return nil, err
	}

	schema, name := sqlutil.SplitQualified(table, d.DefaultSchema())

	var params sqlutil.Params
	params.Bind("schema", schema)
	params.Bind("tableName", name)

	rows, err := s.query(ctx, def, d.ColumnsQuery(), &params)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns of %s: %w", table, err)
	}

	columns := make([]models.ColumnInfo, 0, len(rows))
	for _, row := range rows {
		colName, _ := row.Get("column_name")
		dataType, _ := row.Get("data_type")
		col := models.ColumnInfo{}
		col.Name, _ = stringifyValue(colName)
		col.DataType, _ = stringifyValue(dataType)
		columns = append(columns, col)
	}
	return columns, nil
}

func (s *schemaService) query(ctx context.Context, def *models.ConnectionDefinition, sql string, params *sqlutil.Params) ([]*models.Row, error) {
	conn, err := s.factory.Open(ctx, def.Provider, def.ConnectionString)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			s.logger.Warn("Failed to close connection",
				zap.String("connection_id", def.ID),
				zap.String("error", logging.SanitizeError(err)))
		}
	}()
	return conn.Query(ctx, sql, params)
}
