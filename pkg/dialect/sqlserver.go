package dialect

import "github.com/ekaya-inc/ekaya-bi/pkg/models"

type sqlServerDialect struct{}

func (sqlServerDialect) Provider() models.Provider { return models.ProviderSQLServer }

func (sqlServerDialect) QuoteSegment(segment string) string {
	return "[" + segment + "]"
}

// LikeOperator is plain like; case sensitivity follows the column collation,
// which is case-insensitive on default installs.
func (sqlServerDialect) LikeOperator() string { return "like" }

func (sqlServerDialect) DefaultSchema() string { return "dbo" }

func (sqlServerDialect) TablesQuery() string {
	return `select table_schema + '.' + table_name
from information_schema.tables
where table_type = 'BASE TABLE'
order by table_schema, table_name`
}

func (sqlServerDialect) ColumnsQuery() string {
	return `select column_name, data_type
from information_schema.columns
where table_schema = @schema and table_name = @tableName
order by ordinal_position`
}

func (sqlServerDialect) Render(sel Select) string {
	top := ""
	if sel.Limit > 0 {
		top = "top (" + itoa(sel.Limit) + ")"
	}
	return render(sel, top, "")
}
