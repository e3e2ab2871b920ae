package pay2house

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/oapi-codegen/runtime"

	"github.com/espolin/pay2house-go/signature"
)

// field maps one envelope key onto a destination inside T. Tables of fields
// are declared once per response type, in wire order.
type field[T any] struct {
	name     string
	required bool
	// fallback is bound when the key is absent and the field is optional.
	fallback string
	target   func(*T) any
}

func required[T any](name string, target func(*T) any) field[T] {
	return field[T]{name: name, required: true, target: target}
}

func optional[T any](name, fallback string, target func(*T) any) field[T] {
	return field[T]{name: name, fallback: fallback, target: target}
}

// fieldTable checks a table once at package initialization. Names must be
// unique and non-empty, and required fields cannot carry a fallback.
func fieldTable[T any](fields ...field[T]) []field[T] {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.name == "" {
			panic("pay2house: field table entry without a name")
		}
		if _, ok := seen[f.name]; ok {
			panic(fmt.Sprintf("pay2house: duplicate field %q", f.name))
		}
		if f.required && f.fallback != "" {
			panic(fmt.Sprintf("pay2house: required field %q has a fallback", f.name))
		}
		if f.target == nil {
			panic(fmt.Sprintf("pay2house: field %q has no target", f.name))
		}
		seen[f.name] = struct{}{}
	}
	return fields
}

// decodeFields fills dst from env according to fields. Scalars are coerced
// to the destination type, so "10.50" and 10.5 both bind to a float64.
func decodeFields[T any](endpoint string, env Envelope, fields []field[T], dst *T) error {
	for _, f := range fields {
		target := f.target(dst)
		raw, ok := env[f.name]
		if !ok || raw == nil {
			if f.required {
				return newMalformedResponseError(endpoint, fmt.Sprintf("missing required field %q", f.name), nil)
			}
			if f.fallback == "" {
				continue
			}
			raw = f.fallback
		}
		if err := bindValue(raw, target); err != nil {
			return newMalformedResponseError(endpoint, fmt.Sprintf("field %q", f.name), err)
		}
	}
	return nil
}

func bindValue(raw, target any) error {
	switch raw.(type) {
	case []any, map[string]any:
		encoded, err := json.Marshal(raw)
		if err != nil {
			return err
		}
		return json.Unmarshal(encoded, target)
	}
	s, err := signature.FormatValue(raw)
	if err != nil {
		return err
	}
	return runtime.BindStringToObject(s, target)
}

// decodeObject decodes a nested JSON object keeping numbers as json.Number.
func decodeObject(data []byte) (Envelope, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var env Envelope
	if err := dec.Decode(&env); err != nil {
		return nil, err
	}
	return env, nil
}
