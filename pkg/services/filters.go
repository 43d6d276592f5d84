package services

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-bi/pkg/dialect"
	"github.com/ekaya-inc/ekaya-bi/pkg/models"
	sqlutil "github.com/ekaya-inc/ekaya-bi/pkg/sql"
)

const (
	maxFilters         = 8
	maxValuesPerFilter = 50
)

// filterPredicates turns cross-filters into "col in (@f0_0, ...)" predicates,
// binding every value into params. Only the first maxFilters filters are
// considered; filters without a column or without values are skipped and do
// not consume an index.
func filterPredicates(d dialect.Dialect, filters []models.ChartFilter, params *sqlutil.Params) ([]string, error) {
	if len(filters) > maxFilters {
		filters = filters[:maxFilters]
	}

	var predicates []string
	used := 0
	for _, f := range filters {
		if strings.TrimSpace(f.Column) == "" {
			continue
		}
		if err := sqlutil.EnsureValid(f.Column, "filter.column"); err != nil {
			return nil, err
		}

		values := distinctFold(f.Values, maxValuesPerFilter)
		if len(values) == 0 {
			continue
		}

		col, err := dialect.QuoteWith(d, f.Column)
		if err != nil {
			return nil, err
		}
		placeholders := make([]sqlutil.Placeholder, len(values))
		for i, v := range values {
			placeholders[i] = params.Bind(fmt.Sprintf("f%d_%d", used, i), v)
		}
		predicates = append(predicates, sqlutil.In(col, placeholders))
		used++
	}
	return predicates, nil
}

// distinctFold trims values, drops blanks and case-insensitive duplicates
// (first spelling wins) and keeps at most limit entries.
func distinctFold(values []string, limit int) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, min(len(values), limit))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
		if len(out) == limit {
			break
		}
	}
	return out
}
