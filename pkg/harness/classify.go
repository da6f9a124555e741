package harness

import (
	"reflect"

	"github.com/joyshmitz/frankenpandas/pkg/config"
)

// MismatchCategory mirrors config.MismatchCategory for the harness's
// divergence-classification surface.
type MismatchCategory = config.MismatchCategory

const (
	CategoryValue    = config.CategoryValue
	CategoryType     = config.CategoryType
	CategoryShape    = config.CategoryShape
	CategoryIndex    = config.CategoryIndex
	CategoryNullness = config.CategoryNullness
)

// Severity is a mismatch's divergence level, per §4.9.
type Severity string

const (
	SeverityCritical     Severity = "critical"
	SeverityNonCritical  Severity = "noncritical"
	SeverityInformational Severity = "informational"
)

// Divergence is one classified fixture mismatch.
type Divergence struct {
	Category MismatchCategory
	Severity Severity
	Detail   string
}

// classifyValueMismatch compares actual against expected (both decoded
// into generic interface{} trees from their wire JSON) and produces a
// Divergence describing the first axis they diverge on. nil, nil means
// no divergence.
func classifyValueMismatch(actual, expected interface{}) *Divergence {
	if actual == nil && expected == nil {
		return nil
	}
	if reflect.DeepEqual(actual, expected) {
		return nil
	}

	actualMap, actualIsMap := actual.(map[string]interface{})
	expectedMap, expectedIsMap := expected.(map[string]interface{})
	if actualIsMap && expectedIsMap {
		if d := classifyMapMismatch(actualMap, expectedMap); d != nil {
			return d
		}
	}

	if reflect.TypeOf(actual) != reflect.TypeOf(expected) {
		return &Divergence{Category: CategoryType, Severity: SeverityCritical,
			Detail: "result types differ"}
	}

	return &Divergence{Category: CategoryValue, Severity: SeverityCritical,
		Detail: "result values differ"}
}

func classifyMapMismatch(actual, expected map[string]interface{}) *Divergence {
	if actualNull, ok := isNullVariant(actual); ok {
		if expectedNull, ok2 := isNullVariant(expected); ok2 {
			if actualNull != expectedNull {
				return &Divergence{Category: CategoryNullness, Severity: SeverityNonCritical,
					Detail: "null kinds differ: " + actualNull + " vs " + expectedNull}
			}
			return nil
		}
		return &Divergence{Category: CategoryNullness, Severity: SeverityCritical,
			Detail: "actual is missing, expected is a value"}
	}
	if _, ok := isNullVariant(expected); ok {
		return &Divergence{Category: CategoryNullness, Severity: SeverityCritical,
			Detail: "expected is missing, actual is a value"}
	}

	if actualLen, ok := sliceLen(actual, "values"); ok {
		if expectedLen, ok2 := sliceLen(expected, "values"); ok2 && actualLen != expectedLen {
			return &Divergence{Category: CategoryShape, Severity: SeverityCritical,
				Detail: "column lengths differ"}
		}
	}
	if actualLen, ok := sliceLen(actual, "index"); ok {
		if expectedLen, ok2 := sliceLen(expected, "index"); ok2 && actualLen != expectedLen {
			return &Divergence{Category: CategoryIndex, Severity: SeverityCritical,
				Detail: "index lengths differ"}
		}
	}
	if !indexEqual(actual["index"], expected["index"]) {
		return &Divergence{Category: CategoryIndex, Severity: SeverityNonCritical,
			Detail: "index labels differ"}
	}

	return nil
}

func isNullVariant(m map[string]interface{}) (string, bool) {
	if v, ok := m["null"]; ok {
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	return "", false
}

func sliceLen(m map[string]interface{}, key string) (int, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	s, ok := v.([]interface{})
	if !ok {
		return 0, false
	}
	return len(s), true
}

func indexEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return true
	}
	return reflect.DeepEqual(a, b)
}
