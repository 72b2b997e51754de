package util

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSONObject is returned when model output holds no JSON object.
var ErrNoJSONObject = errors.New("no JSON object found")

// DecodeJSONObject decodes the first JSON object in model output into v.
// Markdown code fences and surrounding prose are ignored.
func DecodeJSONObject(text string, v any) error {
	start := strings.Index(text, "{")
	if start < 0 {
		return ErrNoJSONObject
	}
	dec := json.NewDecoder(strings.NewReader(text[start:]))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}
