package signing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func jsonVal(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestIsJSONSubset(t *testing.T) {
	cases := []struct {
		name     string
		subset   string
		superset string
		want     bool
	}{
		{"identity", `{"request":{"headers":[["Host","example.com"]]},"response":{"body":"OK"}}`, `{"request":{"headers":[["Host","example.com"]]},"response":{"body":"OK"}}`, true},
		{"key removal", `{"a":1}`, `{"a":1,"b":2,"c":3}`, true},
		{"null replacement", `{"a":1,"b":null}`, `{"a":1,"b":"secret"}`, true},
		{"scalar change", `{"a":2}`, `{"a":1}`, false},
		{"key addition", `{"a":1,"b":2}`, `{"a":1}`, false},
		{"array length mismatch", `[1,2]`, `[1,2,3]`, false},
		{"type mismatch", `{"a":42}`, `{"a":"string"}`, false},
		{"empty object", `{}`, `{"a":1,"b":[2,3]}`, true},
		{"full null array", `[null,null]`, `["hello",42]`, true},
		{"deep nesting with null", `{"request":{"headers":[["Host","example.com"],null]}}`, `{"request":{"headers":[["Host","example.com"],["Cookie","session=abc"]],"body":"payload"}}`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := IsJSONSubset(jsonVal(t, tc.subset), jsonVal(t, tc.superset))
			require.Equal(t, tc.want, got)
		})
	}
}
