package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRow_CaseInsensitiveLookup(t *testing.T) {
	row := RowFrom([]string{"Dimension", "value"}, []any{"shipped", 42})

	v, ok := row.Get("DIMENSION")
	require.True(t, ok)
	assert.Equal(t, "shipped", v)

	_, ok = row.Get("missing")
	assert.False(t, ok)
}

func TestRow_PreservesOrderInJSON(t *testing.T) {
	row := RowFrom([]string{"zeta", "alpha", "mid"}, []any{1, "two", nil})

	out, err := json.Marshal(row)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":1,"alpha":"two","mid":null}`, string(out))
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, row.Keys())
}

func TestRow_DuplicateKeyIgnoringCaseReplacesInPlace(t *testing.T) {
	row := RowFrom([]string{"id", "name", "ID"}, []any{1, "a", 2})

	assert.Equal(t, 2, row.Len())
	assert.Equal(t, []string{"id", "name"}, row.Keys())
	v, _ := row.Get("id")
	assert.Equal(t, 2, v)
}

func TestRow_Update(t *testing.T) {
	row := RowFrom([]string{"a", "b"}, []any{"x", 1})
	row.Update(func(key string, value any) any {
		if s, ok := value.(string); ok {
			return s + s
		}
		return value
	})

	a, _ := row.Get("a")
	b, _ := row.Get("b")
	assert.Equal(t, "xx", a)
	assert.Equal(t, 1, b)
}

func TestRow_UnmarshalJSON(t *testing.T) {
	var row Row
	require.NoError(t, json.Unmarshal([]byte(`{"b":1,"a":"x"}`), &row))
	assert.Equal(t, []string{"b", "a"}, row.Keys())

	v, _ := row.Get("B")
	assert.Equal(t, json.Number("1"), v)

	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &row))
}

func TestRow_NilSafe(t *testing.T) {
	var row *Row
	assert.Equal(t, 0, row.Len())
	assert.Equal(t, []string{}, row.Keys())
	_, ok := row.Get("a")
	assert.False(t, ok)
}
