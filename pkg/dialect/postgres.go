package dialect

import "github.com/ekaya-inc/ekaya-bi/pkg/models"

type postgresDialect struct{}

func (postgresDialect) Provider() models.Provider { return models.ProviderPostgres }

func (postgresDialect) QuoteSegment(segment string) string {
	return `"` + segment + `"`
}

func (postgresDialect) LikeOperator() string { return "ilike" }

func (postgresDialect) DefaultSchema() string { return "public" }

func (postgresDialect) TablesQuery() string {
	return `select table_schema || '.' || table_name
from information_schema.tables
where table_type = 'BASE TABLE'
  and table_schema not in ('pg_catalog', 'information_schema')
order by table_schema, table_name`
}

func (postgresDialect) ColumnsQuery() string {
	return `select column_name, data_type
from information_schema.columns
where table_schema = @schema and table_name = @tableName
order by ordinal_position`
}

func (postgresDialect) Render(sel Select) string {
	limit := ""
	if sel.Limit > 0 {
		limit = "limit " + itoa(sel.Limit)
	}
	return render(sel, "", limit)
}
