package sql

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-bi/pkg/apperrors"
)

func TestEnsureValid(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		wantErr    string
	}{
		{name: "simple", identifier: "orders"},
		{name: "underscore start", identifier: "_tmp"},
		{name: "mixed case and digits", identifier: "Order_Items2"},
		{name: "schema qualified", identifier: "public.orders"},
		{name: "three part", identifier: "db.dbo.orders"},
		{name: "empty segments dropped", identifier: "public..orders"},
		{name: "empty", identifier: "", wantErr: "table is empty."},
		{name: "whitespace", identifier: "   ", wantErr: "table is empty."},
		{name: "leading digit", identifier: "1abc", wantErr: "Invalid table: '1abc'."},
		{name: "hyphen", identifier: "a-b", wantErr: "Invalid table: 'a-b'."},
		{name: "space inside", identifier: "order items", wantErr: "Invalid table: 'order items'."},
		{name: "quote injection", identifier: `orders"; drop table x; --`, wantErr: `Invalid table: 'orders"; drop table x; --'.`},
		{name: "bracket injection", identifier: "orders]", wantErr: "Invalid table: 'orders]'."},
		{name: "bad second segment", identifier: "public.1orders", wantErr: "Invalid table: 'public.1orders'."},
		{name: "only dots", identifier: "..", wantErr: "Invalid table: '..'."},
		{name: "unicode letter", identifier: "café", wantErr: "Invalid table: 'café'."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := EnsureValid(tt.identifier, "table")
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestSegments(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Segments("a.b"))
	assert.Equal(t, []string{"a", "b"}, Segments(".a..b."))
	assert.Empty(t, Segments("..."))
}

func TestSplitQualified(t *testing.T) {
	tests := []struct {
		table, def, wantSchema, wantName string
	}{
		{table: "orders", def: "public", wantSchema: "public", wantName: "orders"},
		{table: "sales.orders", def: "public", wantSchema: "sales", wantName: "orders"},
		{table: "orders", def: "dbo", wantSchema: "dbo", wantName: "orders"},
		{table: "a.b.c", def: "dbo", wantSchema: "a", wantName: "b.c"},
		{table: ".orders", def: "public", wantSchema: "public", wantName: "orders"},
		{table: "sales.", def: "public", wantSchema: "public", wantName: "sales"},
		{table: "sales..orders", def: "public", wantSchema: "sales", wantName: "orders"},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			schema, name := SplitQualified(tt.table, tt.def)
			assert.Equal(t, tt.wantSchema, schema)
			assert.Equal(t, tt.wantName, name)
		})
	}
}
