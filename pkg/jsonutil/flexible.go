package jsonutil

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FlexibleStringValue converts a json.RawMessage to a string, accepting numbers
// and booleans as well as strings. Returns empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	var numVal json.Number
	if err := json.Unmarshal(raw, &numVal); err == nil {
		return numVal.String()
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return strconv.FormatBool(boolVal)
	}

	return string(raw)
}

// FlexibleInt is an optional integer that decodes from a JSON number or a
// numeric string. Set is false when the field was absent, null or "".
type FlexibleInt struct {
	Value int
	Set   bool
}

// IntOf returns a FlexibleInt holding v.
func IntOf(v int) FlexibleInt {
	return FlexibleInt{Value: v, Set: true}
}

// Ptr returns nil when the value is unset.
func (f FlexibleInt) Ptr() *int {
	if !f.Set {
		return nil
	}
	v := f.Value
	return &v
}

func (f *FlexibleInt) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(FlexibleStringValue(data))
	if s == "" {
		*f = FlexibleInt{}
		return nil
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return fmt.Errorf("expected integer, got %s", string(data))
	}
	if n > math.MaxInt32 {
		n = math.MaxInt32
	}
	if n < math.MinInt32 {
		n = math.MinInt32
	}

	*f = FlexibleInt{Value: int(n), Set: true}
	return nil
}

func (f FlexibleInt) MarshalJSON() ([]byte, error) {
	if !f.Set {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(f.Value)), nil
}
