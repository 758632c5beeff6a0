package engine

// MaskToken replaces masked field values in response documents.
const MaskToken = "[REDACTED]"

// FilterFields returns a copy of doc with the named top-level fields
// removed. Absent fields are a no-op, never an error. When doc is an array
// of objects, the filter applies to each element, preserving order.
// Removing a field removes its entire subtree. The input document is never
// mutated, and re-applying the same filter is a no-op.
func FilterFields(doc interface{}, fields []string) interface{} {
	return mapTopLevel(doc, func(obj map[string]interface{}) map[string]interface{} {
		out := make(map[string]interface{}, len(obj))
		for k, v := range obj {
			out[k] = v
		}
		for _, f := range fields {
			delete(out, f)
		}
		return out
	})
}

// MaskFields returns a copy of doc with the named top-level fields replaced
// by the mask token. Array and absent-field semantics match FilterFields.
func MaskFields(doc interface{}, fields []string) interface{} {
	return mapTopLevel(doc, func(obj map[string]interface{}) map[string]interface{} {
		out := make(map[string]interface{}, len(obj))
		for k, v := range obj {
			out[k] = v
		}
		for _, f := range fields {
			if _, ok := out[f]; ok {
				out[f] = MaskToken
			}
		}
		return out
	})
}

// mapTopLevel applies fn to doc when it is an object, or to each object
// element when it is an array. Anything else passes through unchanged.
func mapTopLevel(doc interface{}, fn func(map[string]interface{}) map[string]interface{}) interface{} {
	switch node := doc.(type) {
	case map[string]interface{}:
		return fn(node)
	case []interface{}:
		out := make([]interface{}, len(node))
		for i, elem := range node {
			if obj, ok := elem.(map[string]interface{}); ok {
				out[i] = fn(obj)
			} else {
				out[i] = elem
			}
		}
		return out
	default:
		return doc
	}
}

// FilterSensitiveFields returns a copy of doc with every field whose schema
// annotation marks it sensitive removed, at any depth, including whole
// sub-objects. The walk is guided exclusively by the schema: fields without
// an annotation are never removed, however suggestive their names. Arrays
// are transparent in schema paths, so "items.ssn" covers ssn inside each
// element of an items array. Idempotent by construction: removed paths
// simply no longer exist on a second pass.
func FilterSensitiveFields(doc interface{}, sensitivity SchemaSensitivity) interface{} {
	if len(sensitivity) == 0 {
		return doc
	}
	return filterSensitive(doc, "", sensitivity)
}

func filterSensitive(node interface{}, prefix string, sensitivity SchemaSensitivity) interface{} {
	switch n := node.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(n))
		for k, v := range n {
			path := k
			if prefix != "" {
				path = prefix + "." + k
			}
			if sensitivity.Sensitive(path) {
				continue
			}
			out[k] = filterSensitive(v, path, sensitivity)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(n))
		for i, elem := range n {
			out[i] = filterSensitive(elem, prefix, sensitivity)
		}
		return out
	default:
		return node
	}
}
