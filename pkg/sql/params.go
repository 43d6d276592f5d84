package sql

import (
	"fmt"
	"strings"
	"time"
)

// ParamType is the SQL-side type inferred from a bound Go value.
type ParamType string

const (
	ParamText      ParamType = "text"
	ParamInteger   ParamType = "integer"
	ParamNumeric   ParamType = "numeric"
	ParamBoolean   ParamType = "boolean"
	ParamTimestamp ParamType = "timestamp"
	ParamNull      ParamType = "null"
)

// Param is one named value bound to a statement.
type Param struct {
	Name  string
	Value any
	Type  ParamType
}

// Placeholder is the "@name" reference to a bound parameter. Values only
// reach statement text through placeholders produced by Params.Bind.
type Placeholder string

// Params is the ordered parameter list of one statement.
// The zero value is ready to use.
type Params struct {
	list  []Param
	names map[string]struct{}
}

// Bind adds value under name and returns its placeholder.
// Names must be unique within a statement; a duplicate is a programming error.
func (p *Params) Bind(name string, value any) Placeholder {
	if p.names == nil {
		p.names = make(map[string]struct{})
	}
	if _, dup := p.names[name]; dup {
		panic(fmt.Sprintf("sql: parameter %q bound twice", name))
	}
	p.names[name] = struct{}{}
	p.list = append(p.list, Param{Name: name, Value: value, Type: inferParamType(value)})
	return Placeholder("@" + name)
}

// List returns the bound parameters in binding order.
func (p *Params) List() []Param {
	if p == nil {
		return nil
	}
	out := make([]Param, len(p.list))
	copy(out, p.list)
	return out
}

// Len returns the number of bound parameters.
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.list)
}

// Values returns name->value for drivers that bind by name.
func (p *Params) Values() map[string]any {
	out := make(map[string]any, p.Len())
	if p == nil {
		return out
	}
	for _, param := range p.list {
		out[param.Name] = param.Value
	}
	return out
}

// In renders "column in (@a, @b)". column must already be validated and quoted.
func In(column string, placeholders []Placeholder) string {
	refs := make([]string, len(placeholders))
	for i, ph := range placeholders {
		refs[i] = string(ph)
	}
	return column + " in (" + strings.Join(refs, ", ") + ")"
}

// Match renders "column <op> @p" for comparison operators such as like.
func Match(column, op string, placeholder Placeholder) string {
	return column + " " + op + " " + string(placeholder)
}

// Where joins predicates with "and" behind a "where" keyword, or returns ""
// when there are none.
func Where(predicates []string) string {
	if len(predicates) == 0 {
		return ""
	}
	return "where " + strings.Join(predicates, " and ")
}

func inferParamType(value any) ParamType {
	switch value.(type) {
	case nil:
		return ParamNull
	case string:
		return ParamText
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return ParamInteger
	case float32, float64:
		return ParamNumeric
	case bool:
		return ParamBoolean
	case time.Time:
		return ParamTimestamp
	default:
		return ParamText
	}
}
