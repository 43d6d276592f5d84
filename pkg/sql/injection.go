package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult describes a bound value that looks like SQL injection.
type InjectionCheckResult struct {
	IsSQLi      bool
	Fingerprint string
	ParamName   string
	ParamValue  any
}

// CheckParameterForInjection runs libinjection over a string value.
// Non-string values return nil. A hit does not make the value unsafe to bind;
// it is only a signal for the security audit log.
func CheckParameterForInjection(paramName string, value any) *InjectionCheckResult {
	strValue, ok := value.(string)
	if !ok {
		return nil
	}

	isSQLi, fingerprint := libinjection.IsSQLi(strValue)
	if !isSQLi {
		return nil
	}

	return &InjectionCheckResult{
		IsSQLi:      true,
		Fingerprint: string(fingerprint),
		ParamName:   paramName,
		ParamValue:  value,
	}
}

// CheckAllParameters checks every bound parameter and returns the hits in
// binding order.
func CheckAllParameters(params *Params) []*InjectionCheckResult {
	var results []*InjectionCheckResult
	for _, p := range params.List() {
		if result := CheckParameterForInjection(p.Name, p.Value); result != nil {
			results = append(results, result)
		}
	}
	return results
}
