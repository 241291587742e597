package schema

import (
	"strconv"
	"strings"
)

// Diff compares a candidate field map against the currently stored fields
// and returns the minimal changed-field delta. Only fields present in the
// candidate are considered; fields the candidate does not mention are left
// untouched. Fields not declared in the schema are ignored.
//
// When current is nil (no stored record) every present candidate field is
// reported as changed: this is the create path.
//
// The returned changed list follows schema declaration order. newValues
// holds the coerced values for exactly the changed fields.
func (s *Schema) Diff(current, candidate map[string]interface{}) (changed []string, newValues map[string]interface{}) {
	newValues = make(map[string]interface{})

	for _, f := range s.Fields {
		cand, present := candidate[f.Name]
		if !present {
			continue
		}

		coerced := coerceValue(f, cand)
		if current == nil {
			changed = append(changed, f.Name)
			newValues[f.Name] = coerced
			continue
		}

		if valuesDiffer(f, current[f.Name], cand) {
			changed = append(changed, f.Name)
			newValues[f.Name] = coerced
		}
	}

	return changed, newValues
}

// valuesDiffer reports whether stored and cand are different under the
// field's comparison policy.
func valuesDiffer(f Field, stored, cand interface{}) bool {
	if f.Kind == KindNumeric {
		sv, sok := numericValue(stored)
		cv, cok := numericValue(cand)

		if f.NullsCompareAsZero {
			if !sok && isNullish(stored) {
				sv, sok = 0, true
			}
			if !cok && isNullish(cand) {
				cv, cok = 0, true
			}
		}

		if sok && cok {
			return sv != cv
		}
		// Not numerically comparable on at least one side: null only
		// matches null, everything else falls back to exact equality.
		if isNullish(stored) || isNullish(cand) {
			return !(isNullish(stored) && isNullish(cand))
		}
		return stringValue(stored) != stringValue(cand)
	}

	// String fields: null, missing and "" are equivalent.
	if isNullish(stored) || isNullish(cand) {
		return !(isNullish(stored) && isNullish(cand))
	}
	return stringValue(stored) != stringValue(cand)
}

// coerceValue normalizes a candidate value to its storage representation:
// numeric fields become float64 (or nil), string fields become string (or nil).
func coerceValue(f Field, v interface{}) interface{} {
	if isNullish(v) {
		return nil
	}
	if f.Kind == KindNumeric {
		if n, ok := numericValue(v); ok {
			return n
		}
	}
	return stringValue(v)
}

// numericValue extracts a float64 from the dynamic representations a JSON
// payload or a decoded record can carry.
func numericValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		trimmed := strings.TrimSpace(n)
		if trimmed == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// isNullish reports whether v is null for comparison purposes: nil or the
// empty string. Data-entry forms routinely post "" for cleared inputs.
func isNullish(v interface{}) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

func stringValue(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}
