package datasource

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// NormalizeNumeric turns the text form of an exact numeric (NUMERIC, DECIMAL,
// MONEY) into a json.Number so it encodes as a JSON number without going
// through float64. Text that is not a finite decimal is returned unchanged.
func NormalizeNumeric(text string) any {
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return text
	}
	return json.Number(d.String())
}

// NormalizeFloat maps NaN and infinities to nil, since encoding/json refuses
// them. Anything else is returned unchanged.
func NormalizeFloat(v any) any {
	switch f := v.(type) {
	case float64:
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
	case float32:
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return nil
		}
	}
	return v
}
