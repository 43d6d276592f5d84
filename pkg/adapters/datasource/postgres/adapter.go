package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ekaya-inc/ekaya-bi/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-bi/pkg/models"
	sqlutil "github.com/ekaya-inc/ekaya-bi/pkg/sql"
)

// closeTimeout bounds the terminate handshake when closing a session.
const closeTimeout = 5 * time.Second

// Connection is a single pgx session. It is not pooled: each operation opens
// one and closes it when done.
type Connection struct {
	conn *pgx.Conn
}

// Open connects and authenticates against PostgreSQL.
func Open(ctx context.Context, connectionString string) (datasource.Connection, error) {
	connStr, err := NormalizeConnectionString(connectionString)
	if err != nil {
		return nil, err
	}

	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return &Connection{conn: conn}, nil
}

// Query runs query with params bound as pgx named arguments.
func (c *Connection) Query(ctx context.Context, query string, params *sqlutil.Params) ([]*models.Row, error) {
	rows, err := c.conn.Query(ctx, query, queryArgs(params)...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = fd.Name
	}

	result := make([]*models.Row, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row values: %w", err)
		}
		for i := range values {
			values[i] = normalizeValue(values[i])
		}
		result = append(result, models.RowFrom(columns, values))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// QueryScalar returns the first column of the first row.
func (c *Connection) QueryScalar(ctx context.Context, query string, params *sqlutil.Params) (any, error) {
	var value any
	err := c.conn.QueryRow(ctx, query, queryArgs(params)...).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return normalizeValue(value), nil
}

// Close ends the session.
func (c *Connection) Close() error {
	if c.conn == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	return c.conn.Close(ctx)
}

func queryArgs(params *sqlutil.Params) []any {
	if params.Len() == 0 {
		return nil
	}
	return []any{pgx.NamedArgs(params.Values())}
}

// normalizeValue converts pgx values that do not encode well as JSON.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case pgtype.Numeric:
		if !val.Valid {
			return nil
		}
		dv, err := val.Value()
		if err != nil {
			return nil
		}
		if s, ok := dv.(string); ok {
			return datasource.NormalizeNumeric(s)
		}
		return dv
	case [16]byte:
		return uuid.UUID(val).String()
	case float64, float32:
		return datasource.NormalizeFloat(val)
	default:
		return v
	}
}

// Ensure Connection implements datasource.Connection at compile time.
var _ datasource.Connection = (*Connection)(nil)
