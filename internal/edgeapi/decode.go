package edgeapi

import (
	"encoding/json"
	"fmt"
)

// As converts a cached value to T. Live values are plain type assertions;
// snapshot-restored values arrive as raw JSON and are decoded through the
// same wire types as live responses.
func As[T any](v any) (T, error) {
	if typed, ok := v.(T); ok {
		return typed, nil
	}
	var out T
	raw, ok := v.(json.RawMessage)
	if !ok {
		return out, fmt.Errorf("edgeapi: unexpected cached type %T", v)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("edgeapi: decode cached value: %w", err)
	}
	return out, nil
}
