package datasource

import (
	"context"

	"github.com/ekaya-inc/ekaya-bi/pkg/models"
	sqlutil "github.com/ekaya-inc/ekaya-bi/pkg/sql"
)

// Connection is one open session to a registered database.
// Each implementation owns its session and must be closed when done.
type Connection interface {
	// Query runs a statement and returns every row in driver column order.
	// params may be nil; values are bound by name, never interpolated.
	Query(ctx context.Context, query string, params *sqlutil.Params) ([]*models.Row, error)

	// QueryScalar returns the first column of the first row, or nil when the
	// statement returns no rows.
	QueryScalar(ctx context.Context, query string, params *sqlutil.Params) (any, error)

	// Close releases the session.
	Close() error
}

// OpenFunc opens and verifies a session from a provider connection string.
type OpenFunc func(ctx context.Context, connectionString string) (Connection, error)
