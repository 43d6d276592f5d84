package sql

import (
	"testing"
)

func TestCheckParameterForInjection(t *testing.T) {
	tests := []struct {
		name            string
		paramName       string
		value           any
		expectInjection bool
	}{
		{name: "clean filter value", paramName: "f0_0", value: "shipped", expectInjection: false},
		{name: "clean date string", paramName: "f1_0", value: "2024-01-15", expectInjection: false},
		{name: "clean search pattern", paramName: "search", value: "laptop computers", expectInjection: false},
		{name: "apostrophe in name", paramName: "f0_1", value: "O'Brien", expectInjection: false},
		{name: "integer value", paramName: "f0_0", value: 100, expectInjection: false},
		{name: "nil value", paramName: "f0_0", value: nil, expectInjection: false},
		{name: "tautology", paramName: "f0_0", value: "' OR '1'='1", expectInjection: true},
		{name: "drop table", paramName: "f0_0", value: "'; DROP TABLE users--", expectInjection: true},
		{name: "union select", paramName: "search", value: "1 UNION SELECT * FROM passwords", expectInjection: true},
		{name: "comment terminator", paramName: "f2_3", value: "admin'--", expectInjection: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckParameterForInjection(tt.paramName, tt.value)
			if !tt.expectInjection {
				if result != nil {
					t.Errorf("expected no injection for %v, got fingerprint %q", tt.value, result.Fingerprint)
				}
				return
			}
			if result == nil {
				t.Fatalf("expected injection for %v", tt.value)
			}
			if !result.IsSQLi {
				t.Error("expected IsSQLi to be true")
			}
			if result.Fingerprint == "" {
				t.Error("expected a fingerprint")
			}
			if result.ParamName != tt.paramName {
				t.Errorf("expected param name %q, got %q", tt.paramName, result.ParamName)
			}
		})
	}
}

func TestCheckAllParameters(t *testing.T) {
	var params Params
	params.Bind("f0_0", "shipped")
	params.Bind("f0_1", "'; DROP TABLE users--")
	params.Bind("search", "%' OR '1'='1%")

	results := CheckAllParameters(&params)
	if len(results) == 0 {
		t.Fatal("expected at least one injection result")
	}
	if results[0].ParamName != "f0_1" {
		t.Errorf("expected first hit on f0_1, got %q", results[0].ParamName)
	}
	for _, r := range results {
		if r.ParamName == "f0_0" {
			t.Error("clean value reported as injection")
		}
	}
}

func TestCheckAllParameters_Empty(t *testing.T) {
	var params Params
	if results := CheckAllParameters(&params); len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}
