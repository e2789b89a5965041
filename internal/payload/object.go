// Package payload holds the dynamic JSON body handling for the
// repeater. Inbound and outbound bodies have no schema, so they are
// kept as ordered key/value pairs rather than Go structs; preserving
// document key order makes the mapping's collision behavior
// deterministic.
package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Object is a JSON object whose keys keep their document order. Values
// are retained as raw JSON so nested content round-trips byte for byte.
type Object struct {
	keys   []string
	values map[string]json.RawMessage
}

// Parse decodes data into an Object. Data must be a JSON object.
func Parse(data []byte) (Object, error) {
	var o Object
	if err := o.UnmarshalJSON(data); err != nil {
		return Object{}, err
	}
	return o, nil
}

func (o *Object) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("payload: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("payload: body is not a JSON object")
	}

	o.keys = nil
	o.values = make(map[string]json.RawMessage)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("payload: %w", err)
		}
		key := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("payload: %w", err)
		}
		o.Set(key, raw)
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("payload: %w", err)
	}
	return nil
}

func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(o.values[key])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Set stores raw under key. A repeated key keeps its original position
// and takes the new value.
func (o *Object) Set(key string, raw json.RawMessage) {
	if o.values == nil {
		o.values = make(map[string]json.RawMessage)
	}
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = raw
}

// SetValue marshals v and stores it under key.
func (o *Object) SetValue(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	o.Set(key, raw)
	return nil
}

// Clone returns an independent copy sharing the raw value bytes.
func (o Object) Clone() Object {
	var out Object
	for _, key := range o.keys {
		out.Set(key, o.values[key])
	}
	return out
}

// Get returns the raw value for key.
func (o Object) Get(key string) (json.RawMessage, bool) {
	raw, ok := o.values[key]
	return raw, ok
}

// Keys returns the keys in document order.
func (o Object) Keys() []string {
	return o.keys
}

func (o Object) Len() int {
	return len(o.keys)
}
