package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type transformKind int

const (
	transformUnion transformKind = iota + 1
	transformRemove
)

// Transform is a server-side field transform applied atomically by Update.
type Transform struct {
	kind   transformKind
	values []any
}

// ArrayUnion adds values to an array field, skipping values already present.
// Applying it twice with the same value is a no-op.
func ArrayUnion(values ...any) Transform {
	return Transform{kind: transformUnion, values: values}
}

// ArrayRemove removes every occurrence of values from an array field.
func ArrayRemove(values ...any) Transform {
	return Transform{kind: transformRemove, values: values}
}

// Apply merges fields into the JSON object body and returns the new body.
// Gateways call it inside their own atomic section.
func Apply(body json.RawMessage, fields Fields) (json.RawMessage, error) {
	obj := map[string]json.RawMessage{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &obj); err != nil {
			return nil, fmt.Errorf("apply update: decode body: %w", err)
		}
	}

	for name, v := range fields {
		t, ok := v.(Transform)
		if !ok {
			raw, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("apply update: field %s: %w", name, err)
			}
			obj[name] = raw
			continue
		}

		var current []json.RawMessage
		if existing, ok := obj[name]; ok && !bytes.Equal(existing, []byte("null")) {
			if err := json.Unmarshal(existing, &current); err != nil {
				return nil, fmt.Errorf("apply update: field %s is not an array: %w", name, err)
			}
		}

		next, err := t.apply(current)
		if err != nil {
			return nil, fmt.Errorf("apply update: field %s: %w", name, err)
		}
		raw, err := json.Marshal(next)
		if err != nil {
			return nil, fmt.Errorf("apply update: field %s: %w", name, err)
		}
		obj[name] = raw
	}

	out, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("apply update: encode body: %w", err)
	}
	return out, nil
}

func (t Transform) apply(current []json.RawMessage) ([]json.RawMessage, error) {
	encoded := make([]json.RawMessage, 0, len(t.values))
	for _, v := range t.values {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, raw)
	}

	out := make([]json.RawMessage, 0, len(current)+len(encoded))
	switch t.kind {
	case transformUnion:
		out = append(out, current...)
		for _, v := range encoded {
			if !containsRaw(out, v) {
				out = append(out, v)
			}
		}
	case transformRemove:
		for _, v := range current {
			if !containsRaw(encoded, v) {
				out = append(out, v)
			}
		}
	default:
		return nil, fmt.Errorf("unknown transform")
	}
	return out, nil
}

func containsRaw(list []json.RawMessage, v json.RawMessage) bool {
	for _, item := range list {
		if bytes.Equal(compact(item), compact(v)) {
			return true
		}
	}
	return false
}

func compact(raw json.RawMessage) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}

// Matches reports whether the top-level string field of body equals value.
func Matches(body json.RawMessage, f Filter) bool {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return false
	}
	raw, ok := obj[f.Field]
	if !ok {
		return f.Value == ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false
	}
	return s == f.Value
}
