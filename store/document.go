package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Normalize returns a deep copy of fields in JSON document form.
func Normalize(fields map[string]any) (map[string]any, error) {
	if fields == nil {
		return map[string]any{}, nil
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return out, nil
}

// Merge applies partial onto doc in place. Keys in partial overwrite; all
// other keys of doc are kept.
func Merge(doc, partial map[string]any) {
	for k, v := range partial {
		doc[k] = v
	}
}

// Matches reports whether doc equals every filter value. Absent fields and
// null filter values never match.
func Matches(doc, filters map[string]any) bool {
	for k, want := range filters {
		got, ok := doc[k]
		if !ok || want == nil || !Equal(got, want) {
			return false
		}
	}
	return true
}

// Equal compares two values by their JSON encoding.
func Equal(a, b any) bool {
	ea, err := json.Marshal(a)
	if err != nil {
		return false
	}
	eb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ea, eb)
}

// ValidateField rejects names that cannot be addressed as a top-level key.
func ValidateField(name string) error {
	if name == "" || strings.ContainsAny(name, "\"\\") {
		return fmt.Errorf("invalid field name %q", name)
	}
	return nil
}
