package models

import "strings"

// TableInfo is a base table qualified as schema.table.
type TableInfo struct {
	Name string `json:"name"`
}

// ColumnInfo is one column of a table, in ordinal order.
type ColumnInfo struct {
	Name     string `json:"name"`
	DataType string `json:"dataType"`
}

// TableContext bundles the columns and a few sample rows of one table so a
// chat assistant can reason about it.
type TableContext struct {
	Table      string       `json:"table"`
	Columns    []ColumnInfo `json:"columns"`
	SampleRows []*Row       `json:"sampleRows"`
}

// ColumnSummary renders columns as "name:type" joined by ", ".
func (t *TableContext) ColumnSummary() string {
	parts := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		parts[i] = c.Name + ":" + c.DataType
	}
	return strings.Join(parts, ", ")
}
