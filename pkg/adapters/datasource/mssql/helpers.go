package mssql

import (
	"strings"

	mssql "github.com/microsoft/go-mssqldb"

	"github.com/ekaya-inc/ekaya-bi/pkg/adapters/datasource"
)

// convertValue maps go-mssqldb scan results to JSON-friendly values based on
// the column's database type name.
func convertValue(typeName string, v any) any {
	b, ok := v.([]byte)
	if !ok {
		return datasource.NormalizeFloat(v)
	}

	switch {
	case isNumericType(typeName):
		return datasource.NormalizeNumeric(string(b))
	case strings.EqualFold(typeName, "UNIQUEIDENTIFIER"):
		var id mssql.UniqueIdentifier
		if err := id.Scan(b); err != nil {
			return b
		}
		return id.String()
	case isStringType(typeName):
		return string(b)
	default:
		return b
	}
}

// isNumericType reports exact numerics that the driver returns as text bytes.
func isNumericType(sqlType string) bool {
	switch strings.ToUpper(sqlType) {
	case "DECIMAL", "NUMERIC", "MONEY", "SMALLMONEY":
		return true
	}
	return false
}

func isStringType(sqlType string) bool {
	switch strings.ToUpper(sqlType) {
	case "CHAR", "NCHAR", "VARCHAR", "NVARCHAR", "TEXT", "NTEXT", "XML":
		return true
	}
	return false
}
