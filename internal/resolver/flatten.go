package resolver

import (
	"strings"
)

// flattenData produces dot-path keys from a (sanitized) nested data
// object. Leaf values are already strings after sanitization.
//
// Collision policy: when a pre-flattened key ("agent.name" as a literal
// dotted key) and a nested object path (agent: {name: ...}) resolve to the
// same dot-path, the flattened-nested value takes precedence. At every
// level the scalar leaves are recorded first and nested expansions
// overwrite them afterwards, so the policy holds regardless of map
// iteration order.
func flattenData(data map[string]interface{}) map[string]string {
	flat := make(map[string]string)
	flattenInto("", data, flat)
	return flat
}

func flattenInto(prefix string, m map[string]interface{}, out map[string]string) {
	// Pass 1: scalar and array leaves, including keys that already carry
	// dots.
	for k, v := range m {
		path := joinPath(prefix, k)
		switch val := v.(type) {
		case map[string]interface{}:
			// Pass 2 below.
		case []interface{}:
			out[path] = joinArray(val)
		case string:
			out[path] = val
		default:
			out[path] = stringifyLeaf(val)
		}
	}

	// Pass 2: nested objects win collisions against pass 1.
	for k, v := range m {
		if child, ok := v.(map[string]interface{}); ok {
			flattenInto(joinPath(prefix, k), child, out)
		}
	}
}

// joinArray renders an array leaf as a comma-separated list of its
// stringified scalar members; nested members are skipped.
func joinArray(arr []interface{}) string {
	parts := make([]string, 0, len(arr))
	for _, v := range arr {
		switch v.(type) {
		case map[string]interface{}, []interface{}:
			continue
		default:
			parts = append(parts, stringifyLeaf(v))
		}
	}
	return strings.Join(parts, ", ")
}
