package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bi/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-bi/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-bi/pkg/audit"
	"github.com/ekaya-inc/ekaya-bi/pkg/dialect"
	"github.com/ekaya-inc/ekaya-bi/pkg/logging"
	"github.com/ekaya-inc/ekaya-bi/pkg/models"
	sqlutil "github.com/ekaya-inc/ekaya-bi/pkg/sql"
)

const (
	maxMeasures = 6

	maxChartLimit = 1000

	defaultDistinctLimit = 150
	maxDistinctLimit     = 500

	maxSampleColumns = 12
	maxSampleRows    = 10
	maxSampleRunes   = 120
)

var allowedAggregations = map[string]struct{}{
	models.AggregationSum:   {},
	models.AggregationCount: {},
	models.AggregationAvg:   {},
	models.AggregationMin:   {},
	models.AggregationMax:   {},
}

// QueryService synthesizes and runs read-only statements against a
// registered connection. Every operation opens its own connection and closes
// it before returning.
type QueryService interface {
	// TestConnection opens a session and runs a trivial statement.
	// Any failure is a *apperrors.ConnectionError.
	TestConnection(ctx context.Context, provider models.Provider, connectionString string) error

	// ExecuteSelect runs analyst SQL after the statement guard accepts it.
	ExecuteSelect(ctx context.Context, def *models.ConnectionDefinition, sql string) (*models.ExecuteQueryResponse, error)

	// Chart aggregates one or more measures grouped by a dimension.
	Chart(ctx context.Context, def *models.ConnectionDefinition, req *models.ChartQueryRequest) (*models.ExecuteQueryResponse, error)

	// DistinctValues lists the distinct values of a column for filter pickers.
	DistinctValues(ctx context.Context, def *models.ConnectionDefinition, req *models.DistinctValuesRequest) (*models.DistinctValuesResponse, error)

	// Kpi computes a single aggregate.
	Kpi(ctx context.Context, def *models.ConnectionDefinition, req *models.KpiQueryRequest) (*models.KpiQueryResponse, error)

	// SampleTable returns a few rows of selected columns with long strings cut.
	SampleTable(ctx context.Context, def *models.ConnectionDefinition, table string, columns []string, limit int) ([]*models.Row, error)
}

type queryService struct {
	factory datasource.ConnectionFactory
	auditor *audit.SecurityAuditor
	logger  *zap.Logger
}

func NewQueryService(factory datasource.ConnectionFactory, auditor *audit.SecurityAuditor, logger *zap.Logger) QueryService {
	return &queryService{
		factory: factory,
		auditor: auditor,
		logger:  logger.Named("query"),
	}
}

var _ QueryService = (*queryService)(nil)

func (s *queryService) TestConnection(ctx context.Context, provider models.Provider, connectionString string) error {
	conn, err := s.factory.Open(ctx, provider, connectionString)
	if err != nil {
		return err
	}
	defer s.closeConnection(conn)

	if _, err := conn.QueryScalar(ctx, dialect.TestQuery, nil); err != nil {
		return apperrors.NewConnectionError(err)
	}
	return nil
}

func (s *queryService) ExecuteSelect(ctx context.Context, def *models.ConnectionDefinition, sql string) (*models.ExecuteQueryResponse, error) {
	if err := sqlutil.EnsureSelectOnly(sql); err != nil {
		s.auditor.LogRejectedStatement(ctx, def.ID, sql, err.Error())
		return nil, err
	}

	rows, err := s.query(ctx, def, "execute", sql, nil)
	if err != nil {
		return nil, err
	}
	return newQueryResponse(rows), nil
}

func (s *queryService) Chart(ctx context.Context, def *models.ConnectionDefinition, req *models.ChartQueryRequest) (*models.ExecuteQueryResponse, error) {
	agg, err := normalizeAggregation(req.Aggregation)
	if err != nil {
		return nil, err
	}
	if err := sqlutil.EnsureValid(req.SourceTable, "sourceTable"); err != nil {
		return nil, err
	}
	if err := sqlutil.EnsureValid(req.Dimension, "dimension"); err != nil {
		return nil, err
	}
	if req.Measure != models.MeasureAll {
		if err := sqlutil.EnsureValid(req.Measure, "measure"); err != nil {
			return nil, err
		}
	}
	for _, m := range req.Measures {
		if m != models.MeasureAll {
			if err := sqlutil.EnsureValid(m, "measure"); err != nil {
				return nil, err
			}
		}
	}

	d, err := dialect.For(def.Provider)
	if err != nil {
		return nil, err
	}

	measures := req.Measures
	if len(measures) == 0 {
		measures = []string{req.Measure}
	}
	measures = distinctFold(measures, maxMeasures)
	if len(measures) == 0 {
		measures = []string{req.Measure}
	}

	table, err := dialect.QuoteWith(d, req.SourceTable)
	if err != nil {
		return nil, err
	}
	dim, err := dialect.QuoteWith(d, req.Dimension)
	if err != nil {
		return nil, err
	}

	columns := []string{dim + " as " + d.QuoteSegment("dimension")}
	for _, m := range measures {
		expr, err := aggregateExpr(d, agg, m)
		if err != nil {
			return nil, err
		}
		alias := m
		if len(measures) == 1 {
			alias = "value"
		}
		columns = append(columns, expr+" as "+d.QuoteSegment(alias))
	}

	var params sqlutil.Params
	predicates, err := filterPredicates(d, req.Filters, &params)
	if err != nil {
		return nil, err
	}

	limit := 0
	if req.Limit.Set {
		limit = clamp(req.Limit.Value, 1, maxChartLimit)
	}

	sql := d.Render(dialect.Select{
		Columns: columns,
		From:    table,
		Where:   sqlutil.Where(predicates),
		GroupBy: dim,
		OrderBy: "2 desc",
		Limit:   limit,
	})

	rows, err := s.query(ctx, def, "chart", sql, &params)
	if err != nil {
		return nil, err
	}
	return newQueryResponse(rows), nil
}

func (s *queryService) DistinctValues(ctx context.Context, def *models.ConnectionDefinition, req *models.DistinctValuesRequest) (*models.DistinctValuesResponse, error) {
	if err := sqlutil.EnsureValid(req.SourceTable, "sourceTable"); err != nil {
		return nil, err
	}
	if err := sqlutil.EnsureValid(req.Column, "column"); err != nil {
		return nil, err
	}

	d, err := dialect.For(def.Provider)
	if err != nil {
		return nil, err
	}
	table, err := dialect.QuoteWith(d, req.SourceTable)
	if err != nil {
		return nil, err
	}
	col, err := dialect.QuoteWith(d, req.Column)
	if err != nil {
		return nil, err
	}

	limit := defaultDistinctLimit
	if req.Limit.Set {
		limit = clamp(req.Limit.Value, 1, maxDistinctLimit)
	}

	var params sqlutil.Params
	var predicates []string
	if term := strings.TrimSpace(req.Search); term != "" {
		ph := params.Bind("search", "%"+term+"%")
		predicates = append(predicates, sqlutil.Match(col, d.LikeOperator(), ph))
	}
	filters, err := filterPredicates(d, req.Filters, &params)
	if err != nil {
		return nil, err
	}
	predicates = append(predicates, filters...)

	sql := d.Render(dialect.Select{
		Distinct: true,
		Columns:  []string{col + " as " + d.QuoteSegment("value")},
		From:     table,
		Where:    sqlutil.Where(predicates),
		OrderBy:  "1 asc",
		Limit:    limit,
	})

	rows, err := s.query(ctx, def, "distinct", sql, &params)
	if err != nil {
		return nil, err
	}

	values := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.Len() == 0 {
			continue
		}
		v, _ := row.Get(row.Keys()[0])
		if str, ok := stringifyValue(v); ok {
			values = append(values, str)
		}
	}
	return &models.DistinctValuesResponse{Values: values}, nil
}

func (s *queryService) Kpi(ctx context.Context, def *models.ConnectionDefinition, req *models.KpiQueryRequest) (*models.KpiQueryResponse, error) {
	agg, err := normalizeAggregation(req.Aggregation)
	if err != nil {
		return nil, err
	}
	if err := sqlutil.EnsureValid(req.SourceTable, "sourceTable"); err != nil {
		return nil, err
	}

	measure := strings.TrimSpace(req.Measure)
	if measure == "" {
		measure = models.MeasureAll
	}
	if measure != models.MeasureAll {
		if err := sqlutil.EnsureValid(measure, "measure"); err != nil {
			return nil, err
		}
	}

	d, err := dialect.For(def.Provider)
	if err != nil {
		return nil, err
	}
	table, err := dialect.QuoteWith(d, req.SourceTable)
	if err != nil {
		return nil, err
	}
	expr, err := aggregateExpr(d, agg, measure)
	if err != nil {
		return nil, err
	}

	var params sqlutil.Params
	predicates, err := filterPredicates(d, req.Filters, &params)
	if err != nil {
		return nil, err
	}

	sql := d.Render(dialect.Select{
		Columns: []string{expr + " as " + d.QuoteSegment("value")},
		From:    table,
		Where:   sqlutil.Where(predicates),
	})

	var value any
	err = s.withConnection(ctx, def, "kpi", sql, &params, func(conn datasource.Connection) error {
		var qerr error
		value, qerr = conn.QueryScalar(ctx, sql, &params)
		return qerr
	})
	if err != nil {
		return nil, err
	}
	return &models.KpiQueryResponse{Value: value}, nil
}

func (s *queryService) SampleTable(ctx context.Context, def *models.ConnectionDefinition, table string, columns []string, limit int) ([]*models.Row, error) {
	if err := sqlutil.EnsureValid(table, "table"); err != nil {
		return nil, err
	}
	for _, c := range columns {
		if err := sqlutil.EnsureValid(c, "column"); err != nil {
			return nil, err
		}
	}

	if len(columns) > maxSampleColumns {
		columns = columns[:maxSampleColumns]
	}
	if len(columns) == 0 {
		return []*models.Row{}, nil
	}

	d, err := dialect.For(def.Provider)
	if err != nil {
		return nil, err
	}
	from, err := dialect.QuoteWith(d, table)
	if err != nil {
		return nil, err
	}
	quoted := make([]string, len(columns))
	for i, c := range columns {
		if quoted[i], err = dialect.QuoteWith(d, c); err != nil {
			return nil, err
		}
	}

	sql := d.Render(dialect.Select{
		Columns: quoted,
		From:    from,
		Limit:   clamp(limit, 1, maxSampleRows),
	})

	rows, err := s.query(ctx, def, "sample", sql, nil)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		row.Update(func(_ string, v any) any {
			if str, ok := v.(string); ok {
				return truncateRunes(str, maxSampleRunes)
			}
			return v
		})
	}
	return rows, nil
}

// query runs sql on a fresh connection and returns all rows.
func (s *queryService) query(ctx context.Context, def *models.ConnectionDefinition, operation, sql string, params *sqlutil.Params) ([]*models.Row, error) {
	var rows []*models.Row
	err := s.withConnection(ctx, def, operation, sql, params, func(conn datasource.Connection) error {
		var qerr error
		rows, qerr = conn.Query(ctx, sql, params)
		return qerr
	})
	return rows, err
}

// withConnection audits bound values, opens a connection, runs fn and closes
// the connection on every path. Query errors are returned as the driver
// reported them.
func (s *queryService) withConnection(
	ctx context.Context,
	def *models.ConnectionDefinition,
	operation, sql string,
	params *sqlutil.Params,
	fn func(conn datasource.Connection) error,
) error {
	if params.Len() > 0 {
		s.auditor.LogSuspiciousValues(ctx, def.ID, operation, sqlutil.CheckAllParameters(params))
	}

	conn, err := s.factory.Open(ctx, def.Provider, def.ConnectionString)
	if err != nil {
		s.logger.Warn("Failed to open connection",
			zap.String("connection_id", def.ID),
			zap.String("operation", operation),
			zap.String("error", logging.SanitizeError(err)))
		return err
	}
	defer s.closeConnection(conn)

	start := time.Now()
	if err := fn(conn); err != nil {
		s.logger.Debug("Query failed",
			zap.String("connection_id", def.ID),
			zap.String("operation", operation),
			zap.String("sql", logging.SanitizeQuery(sql)),
			zap.String("error", logging.SanitizeError(err)))
		return err
	}

	s.logger.Debug("Query executed",
		zap.String("connection_id", def.ID),
		zap.String("operation", operation),
		zap.String("sql", logging.SanitizeQuery(sql)),
		zap.Int("params", params.Len()),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (s *queryService) closeConnection(conn datasource.Connection) {
	if err := conn.Close(); err != nil {
		s.logger.Warn("Failed to close connection", zap.String("error", logging.SanitizeError(err)))
	}
}

func newQueryResponse(rows []*models.Row) *models.ExecuteQueryResponse {
	if rows == nil {
		rows = []*models.Row{}
	}
	columns := []string{}
	if len(rows) > 0 {
		columns = rows[0].Keys()
	}
	return &models.ExecuteQueryResponse{Columns: columns, Rows: rows, RowCount: len(rows)}
}

func normalizeAggregation(aggregation string) (string, error) {
	agg := strings.ToUpper(strings.TrimSpace(aggregation))
	if _, ok := allowedAggregations[agg]; !ok {
		return "", apperrors.InvalidInput("Invalid aggregation.")
	}
	return agg, nil
}

// aggregateExpr renders AGG(col), or AGG(*) for the row-count measure.
func aggregateExpr(d dialect.Dialect, agg, measure string) (string, error) {
	if measure == models.MeasureAll {
		if agg != models.AggregationCount {
			return "", apperrors.InvalidInput("Measure '*' is only allowed with COUNT.")
		}
		return agg + "(*)", nil
	}
	col, err := dialect.QuoteWith(d, measure)
	if err != nil {
		return "", err
	}
	return agg + "(" + col + ")", nil
}

func clamp(n, lo, hi int) int {
	return max(lo, min(n, hi))
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}

// stringifyValue renders a distinct value for the picker; nil is skipped.
func stringifyValue(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case []byte:
		return string(val), true
	case json.Number:
		return val.String(), true
	case time.Time:
		return val.Format(time.RFC3339Nano), true
	case fmt.Stringer:
		return val.String(), true
	default:
		return fmt.Sprint(val), true
	}
}
