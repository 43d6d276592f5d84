package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bi/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-bi/pkg/models"
)

func newSchemaMux(schema *mockSchemaService, tableContext *mockTableContextService) *http.ServeMux {
	mux := http.NewServeMux()
	NewSchemaHandler(newMockConnections(), schema, tableContext, zap.NewNop()).RegisterRoutes(mux, noAuth())
	return mux
}

func TestSchemaHandler_Tables(t *testing.T) {
	schema := &mockSchemaService{tables: []string{"public.customers", "public.orders"}}
	mux := newSchemaMux(schema, &mockTableContextService{})

	rec := serve(mux, http.MethodGet, "/api/schema/tables?connectionId="+testConnectionID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"name":"public.customers"},{"name":"public.orders"}]`, rec.Body.String())
}

func TestSchemaHandler_Tables_Empty(t *testing.T) {
	mux := newSchemaMux(&mockSchemaService{tables: []string{}}, &mockTableContextService{})

	rec := serve(mux, http.MethodGet, "/api/schema/tables?connectionId="+testConnectionID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestSchemaHandler_Tables_MissingConnectionID(t *testing.T) {
	mux := newSchemaMux(&mockSchemaService{}, &mockTableContextService{})

	rec := serve(mux, http.MethodGet, "/api/schema/tables", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", decodeError(t, rec.Body.Bytes())["error"])
}

func TestSchemaHandler_Columns(t *testing.T) {
	schema := &mockSchemaService{columns: []models.ColumnInfo{
		{Name: "id", DataType: "integer"},
		{Name: "status", DataType: "text"},
	}}
	mux := newSchemaMux(schema, &mockTableContextService{})

	rec := serve(mux, http.MethodGet, "/api/schema/columns?connectionId="+testConnectionID+"&table=public.orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"name":"id","dataType":"integer"},{"name":"status","dataType":"text"}]`, rec.Body.String())
	assert.Equal(t, "public.orders", schema.lastTable)
}

func TestSchemaHandler_Columns_InvalidTable(t *testing.T) {
	schema := &mockSchemaService{err: apperrors.InvalidInput("Invalid table: 'x;y'.")}
	mux := newSchemaMux(schema, &mockTableContextService{})

	rec := serve(mux, http.MethodGet, "/api/schema/columns?connectionId="+testConnectionID+"&table=x%3By", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid table: 'x;y'.", decodeError(t, rec.Body.Bytes())["message"])
}

func TestSchemaHandler_Tables_Unreachable(t *testing.T) {
	schema := &mockSchemaService{err: apperrors.NewConnectionError(errors.New("no route to host"))}
	mux := newSchemaMux(schema, &mockTableContextService{})

	rec := serve(mux, http.MethodGet, "/api/schema/tables?connectionId="+testConnectionID, "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestSchemaHandler_Context(t *testing.T) {
	tableContext := &mockTableContextService{contexts: []models.TableContext{{
		Table:      "public.orders",
		Columns:    []models.ColumnInfo{{Name: "id", DataType: "integer"}},
		SampleRows: []*models.Row{models.RowFrom([]string{"id"}, []any{7})},
	}}}
	mux := newSchemaMux(&mockSchemaService{}, tableContext)

	rec := serve(mux, http.MethodGet,
		"/api/schema/context?connectionId="+testConnectionID+"&table=public.orders&table=public.items", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"table":"public.orders","columns":[{"name":"id","dataType":"integer"}],"sampleRows":[{"id":7}]}]`,
		rec.Body.String())
	assert.Equal(t, []string{"public.orders", "public.items"}, tableContext.mentioned)
}
