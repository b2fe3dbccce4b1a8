package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/heaplab/internal/ir"
)

// marshalState converts a state object to canonical JSON TEXT, so equal
// states are stored byte-identically.
func marshalState(obj ir.Object) (string, error) {
	if obj == nil {
		obj = ir.Object{}
	}
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("marshal state: %w", err)
	}
	return string(data), nil
}

// unmarshalState parses stored TEXT back to an object. ir.Object decodes
// numbers via json.Number, so large integers keep their precision.
func unmarshalState(data string) (ir.Object, error) {
	if data == "" || data == "{}" {
		return ir.Object{}, nil
	}
	var obj ir.Object
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return obj, nil
}
