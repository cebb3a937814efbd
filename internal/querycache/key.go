package querycache

import (
	"encoding/json"
	"fmt"
)

// Key identifies a cache entry by resource name plus filter parameters.
// Identity is structural: two keys with deeply equal params address the
// same entry regardless of map identity.
type Key struct {
	Resource string
	Params   map[string]any
}

// NewKey builds a key for a resource with optional filter params.
func NewKey(resource string, params map[string]any) Key {
	return Key{Resource: resource, Params: params}
}

// ID returns the canonical string form of the key. encoding/json emits map
// keys in sorted order, which makes the serialization stable across
// structurally equal param sets.
func (k Key) ID() string {
	if len(k.Params) == 0 {
		return k.Resource
	}
	data, err := json.Marshal(k.Params)
	if err != nil {
		// Params come from our own services and are always marshalable;
		// fall back to a debug rendering rather than panicking.
		return fmt.Sprintf("%s?%v", k.Resource, k.Params)
	}
	return k.Resource + "?" + string(data)
}

func (k Key) String() string {
	return k.ID()
}
