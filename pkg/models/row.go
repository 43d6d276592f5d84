package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// Row is one result row: an ordered column->value mapping whose lookups
// ignore case. Keys keep the order in which they were first set.
type Row struct {
	keys   []string
	values []any
	index  map[string]int
}

// NewRow returns an empty row with room for n columns.
func NewRow(n int) *Row {
	return &Row{
		keys:   make([]string, 0, n),
		values: make([]any, 0, n),
		index:  make(map[string]int, n),
	}
}

// RowFrom builds a row from parallel column and value slices.
func RowFrom(columns []string, values []any) *Row {
	row := NewRow(len(columns))
	for i, col := range columns {
		var v any
		if i < len(values) {
			v = values[i]
		}
		row.Set(col, v)
	}
	return row
}

// Set stores value under key. A key that matches an existing one ignoring
// case replaces that value in place and keeps the original spelling.
func (r *Row) Set(key string, value any) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	folded := strings.ToLower(key)
	if i, ok := r.index[folded]; ok {
		r.values[i] = value
		return
	}
	r.index[folded] = len(r.keys)
	r.keys = append(r.keys, key)
	r.values = append(r.values, value)
}

// Get looks up key ignoring case.
func (r *Row) Get(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	i, ok := r.index[strings.ToLower(key)]
	if !ok {
		return nil, false
	}
	return r.values[i], true
}

// Keys returns the column names in order.
func (r *Row) Keys() []string {
	if r == nil {
		return []string{}
	}
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of columns.
func (r *Row) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Each calls fn for every column in order.
func (r *Row) Each(fn func(key string, value any)) {
	if r == nil {
		return
	}
	for i, k := range r.keys {
		fn(k, r.values[i])
	}
}

// Update replaces every value with fn(key, value).
func (r *Row) Update(fn func(key string, value any) any) {
	if r == nil {
		return
	}
	for i, k := range r.keys {
		r.values[i] = fn(k, r.values[i])
	}
}

// MarshalJSON writes the row as an object with keys in column order.
func (r *Row) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object preserving key order.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("row must be a JSON object")
	}

	*r = Row{index: make(map[string]int)}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var value any
		if err := dec.Decode(&value); err != nil {
			return err
		}
		r.Set(key, value)
	}
	_, err = dec.Token()
	return err
}
