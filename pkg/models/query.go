package models

import "github.com/ekaya-inc/ekaya-bi/pkg/jsonutil"

// Aggregations accepted by chart and KPI queries.
const (
	AggregationSum   = "SUM"
	AggregationCount = "COUNT"
	AggregationAvg   = "AVG"
	AggregationMin   = "MIN"
	AggregationMax   = "MAX"
)

// MeasureAll is the measure that stands for every row; only valid with COUNT.
const MeasureAll = "*"

// ChartFilter restricts results to rows where Column is one of Values.
type ChartFilter struct {
	Column string   `json:"column"`
	Values []string `json:"values"`
}

// ChartQueryRequest describes an aggregate grouped by one dimension.
type ChartQueryRequest struct {
	ConnectionID string               `json:"connectionId"`
	ChartType    string               `json:"chartType"`
	SourceTable  string               `json:"sourceTable"`
	Dimension    string               `json:"dimension"`
	Measure      string               `json:"measure"`
	Measures     []string             `json:"measures,omitempty"`
	Filters      []ChartFilter        `json:"filters,omitempty"`
	Aggregation  string               `json:"aggregation"`
	Limit        jsonutil.FlexibleInt `json:"limit,omitzero"`
}

// DistinctValuesRequest asks for the distinct values of one column, used by
// filter pickers.
type DistinctValuesRequest struct {
	ConnectionID string               `json:"connectionId"`
	SourceTable  string               `json:"sourceTable"`
	Column       string               `json:"column"`
	Search       string               `json:"search,omitempty"`
	Limit        jsonutil.FlexibleInt `json:"limit,omitzero"`
	Filters      []ChartFilter        `json:"filters,omitempty"`
}

type DistinctValuesResponse struct {
	Values []string `json:"values"`
}

// KpiQueryRequest describes a single aggregate over a table.
type KpiQueryRequest struct {
	ConnectionID string        `json:"connectionId"`
	SourceTable  string        `json:"sourceTable"`
	Measure      string        `json:"measure"`
	Aggregation  string        `json:"aggregation"`
	Filters      []ChartFilter `json:"filters,omitempty"`
}

type KpiQueryResponse struct {
	Value any `json:"value"`
}

// ExecuteQueryRequest carries analyst-written SQL.
type ExecuteQueryRequest struct {
	ConnectionID string `json:"connectionId"`
	SQL          string `json:"sql"`
}

// ExecuteQueryResponse holds normalized rows. Columns come from the first
// row, so an empty result has no columns.
type ExecuteQueryResponse struct {
	Columns  []string `json:"columns"`
	Rows     []*Row   `json:"rows"`
	RowCount int      `json:"rowCount"`
}
