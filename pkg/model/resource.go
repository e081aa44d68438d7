// Package model turns raw Sequoia page payloads into resolved object graphs
// using the relationships declared in a service descriptor.
package model

// Resource is one Sequoia resource object. Every well-formed resource
// carries at least "ref", "owner" and "name"; relationship fields hold one
// ref string or a list of them.
type Resource map[string]any

// Ref returns the resource's globally unique reference, or "" when absent.
func (r Resource) Ref() string {
	return r.stringField("ref")
}

// Owner returns the resource owner, or "" when absent.
func (r Resource) Owner() string {
	return r.stringField("owner")
}

// Name returns the resource name, or "" when absent.
func (r Resource) Name() string {
	return r.stringField("name")
}

func (r Resource) stringField(key string) string {
	if value, ok := r[key].(string); ok {
		return value
	}
	return ""
}

// RefValues returns the relationship ref strings stored under field.
// The field may carry a single ref string or a list of them. The second
// return is false when the field is absent from the resource.
func (r Resource) RefValues(field string) ([]string, bool) {
	value, ok := r[field]
	if !ok {
		return nil, false
	}

	switch v := value.(type) {
	case string:
		return []string{v}, true
	case []string:
		return v, true
	case []any:
		refs := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				refs = append(refs, s)
			}
		}
		return refs, true
	default:
		return nil, true
	}
}
