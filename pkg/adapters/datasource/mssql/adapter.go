package mssql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb" // SQL Server driver

	"github.com/ekaya-inc/ekaya-bi/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-bi/pkg/models"
	sqlutil "github.com/ekaya-inc/ekaya-bi/pkg/sql"
)

// Connection is a single SQL Server session behind a *sql.DB capped at one
// open connection.
type Connection struct {
	db *sql.DB
}

// Open connects and pings SQL Server. connectionString is any format
// go-mssqldb accepts (ADO keyword=value;..., sqlserver:// URL or ODBC).
func Open(ctx context.Context, connectionString string) (datasource.Connection, error) {
	db, err := sql.Open("sqlserver", connectionString)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping failed: %w", err)
	}

	return newConnection(db), nil
}

func newConnection(db *sql.DB) *Connection {
	return &Connection{db: db}
}

// Query runs query with params bound via sql.Named.
func (c *Connection) Query(ctx context.Context, query string, params *sqlutil.Params) ([]*models.Row, error) {
	columns, values, err := c.query(ctx, query, params, -1)
	if err != nil {
		return nil, err
	}

	result := make([]*models.Row, len(values))
	for i, v := range values {
		result[i] = models.RowFrom(columns, v)
	}
	return result, nil
}

// QueryScalar returns the first column of the first row.
func (c *Connection) QueryScalar(ctx context.Context, query string, params *sqlutil.Params) (any, error) {
	_, values, err := c.query(ctx, query, params, 1)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 || len(values[0]) == 0 {
		return nil, nil
	}
	return values[0][0], nil
}

// Close releases the session.
func (c *Connection) Close() error {
	return c.db.Close()
}

// query reads up to maxRows rows (all when maxRows < 0) with SQL Server
// values converted for JSON.
func (c *Connection) query(ctx context.Context, query string, params *sqlutil.Params, maxRows int) ([]string, [][]any, error) {
	rows, err := c.db.QueryContext(ctx, query, namedArgs(params)...)
	if err != nil {
		return nil, nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columnNames, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get columns: %w", err)
	}

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get column types: %w", err)
	}
	typeNames := make([]string, len(columnTypes))
	for i, ct := range columnTypes {
		typeNames[i] = ct.DatabaseTypeName()
	}

	result := make([][]any, 0)
	for rows.Next() {
		if maxRows >= 0 && len(result) >= maxRows {
			break
		}

		values := make([]any, len(columnNames))
		valuePtrs := make([]any, len(columnNames))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, nil, fmt.Errorf("failed to scan row: %w", err)
		}

		for i := range values {
			values[i] = convertValue(typeNames[i], values[i])
		}
		result = append(result, values)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return columnNames, result, nil
}

func namedArgs(params *sqlutil.Params) []any {
	list := params.List()
	if len(list) == 0 {
		return nil
	}
	args := make([]any, len(list))
	for i, p := range list {
		args[i] = sql.Named(p.Name, p.Value)
	}
	return args
}

// Ensure Connection implements datasource.Connection at compile time.
var _ datasource.Connection = (*Connection)(nil)
