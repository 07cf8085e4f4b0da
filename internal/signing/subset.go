package signing

// IsJSONSubset reports whether subset is a valid filtered form of
// superset. Both values are decoded JSON (the encoding/json any
// representation).
//
// Filtering primitives:
//   - object key removal: any key present in the superset may be omitted
//   - null replacement: any value, including array elements, may be
//     replaced with null
//
// Array element removal is not allowed; arrays must keep the same
// length so positional correspondence is preserved.
func IsJSONSubset(subset, superset any) bool {
	// null replaces anything (redaction)
	if subset == nil {
		return true
	}
	switch sub := subset.(type) {
	case bool:
		sup, ok := superset.(bool)
		return ok && sub == sup
	case float64:
		sup, ok := superset.(float64)
		return ok && sub == sup
	case string:
		sup, ok := superset.(string)
		return ok && sub == sup
	case []any:
		sup, ok := superset.([]any)
		if !ok || len(sub) != len(sup) {
			return false
		}
		for i := range sub {
			if !IsJSONSubset(sub[i], sup[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		sup, ok := superset.(map[string]any)
		if !ok {
			return false
		}
		for key, val := range sub {
			supVal, present := sup[key]
			if !present || !IsJSONSubset(val, supVal) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
