// Package dialect holds the per-provider SQL syntax used when generating
// statements: identifier quoting, row limits, case-insensitive matching and
// catalog queries. Each provider has exactly one Dialect implementation.
package dialect

import (
	"strconv"
	"strings"

	"github.com/ekaya-inc/ekaya-bi/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-bi/pkg/models"
	sqlutil "github.com/ekaya-inc/ekaya-bi/pkg/sql"
)

// Dialect is the provider-specific part of statement generation.
type Dialect interface {
	Provider() models.Provider

	// QuoteSegment wraps one already-validated identifier segment.
	QuoteSegment(segment string) string

	// LikeOperator is the case-insensitive pattern match operator.
	LikeOperator() string

	// DefaultSchema applies to table names without a schema.
	DefaultSchema() string

	// TablesQuery lists base tables as "schema.table", ordered by schema then name.
	TablesQuery() string

	// ColumnsQuery lists column_name, data_type for @schema and @tableName in
	// ordinal order.
	ColumnsQuery() string

	// Render assembles a select statement, placing the row limit where the
	// provider expects it.
	Render(sel Select) string
}

// Select is the shape of every generated read statement. Columns, From and
// the clause fields hold already-quoted SQL fragments.
type Select struct {
	Distinct bool
	Columns  []string
	From     string
	Where    string // full "where ..." clause or ""
	GroupBy  string
	OrderBy  string
	Limit    int // 0 means no limit
}

// TestQuery is the round trip used to check connectivity.
const TestQuery = "select 1"

// For returns the dialect of provider.
func For(provider models.Provider) (Dialect, error) {
	switch provider {
	case models.ProviderPostgres:
		return postgresDialect{}, nil
	case models.ProviderSQLServer:
		return sqlServerDialect{}, nil
	default:
		return nil, apperrors.InvalidInput("Unsupported provider.")
	}
}

// Quote validates identifier and quotes each dot-separated segment for provider.
func Quote(provider models.Provider, identifier string) (string, error) {
	d, err := For(provider)
	if err != nil {
		return "", err
	}
	return QuoteWith(d, identifier)
}

// QuoteWith validates identifier and quotes it with d.
func QuoteWith(d Dialect, identifier string) (string, error) {
	if err := sqlutil.EnsureValid(identifier, "identifier"); err != nil {
		return "", err
	}
	segments := sqlutil.Segments(identifier)
	quoted := make([]string, len(segments))
	for i, seg := range segments {
		quoted[i] = d.QuoteSegment(seg)
	}
	return strings.Join(quoted, "."), nil
}

// render writes sel with an optional top clause (leading) and limit clause
// (trailing); at most one of them is non-empty for a given dialect.
func render(sel Select, top, limit string) string {
	var b strings.Builder
	b.WriteString("select ")
	if sel.Distinct {
		b.WriteString("distinct ")
	}
	if top != "" {
		b.WriteString(top)
		b.WriteString(" ")
	}
	b.WriteString(strings.Join(sel.Columns, ",\n  "))
	b.WriteString("\nfrom ")
	b.WriteString(sel.From)
	if sel.Where != "" {
		b.WriteString("\n")
		b.WriteString(sel.Where)
	}
	if sel.GroupBy != "" {
		b.WriteString("\ngroup by ")
		b.WriteString(sel.GroupBy)
	}
	if sel.OrderBy != "" {
		b.WriteString("\norder by ")
		b.WriteString(sel.OrderBy)
	}
	if limit != "" {
		b.WriteString("\n")
		b.WriteString(limit)
	}
	return b.String()
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
