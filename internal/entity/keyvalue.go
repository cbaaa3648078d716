package entity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// KeyValue is a single named value inside a parameter or annotation list.
type KeyValue struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Parameters is an ordered list of key/value pairs. Setting an existing key
// replaces the value in place, so the list behaves like a JSON object whose
// keys keep their first-insertion order.
type Parameters []KeyValue

// Annotations shares the Parameters shape but is used for declarative
// control flags rather than action inputs.
type Annotations = Parameters

// ErrNotObject indicates a JSON value that is not an object where one is required.
var ErrNotObject = errors.New("entity: json value is not an object")

// Get returns the value stored under key.
func (p Parameters) Get(key string) (any, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return nil, false
}

// Bool returns the value under key only when it is boolean.
func (p Parameters) Bool(key string) (bool, bool) {
	v, ok := p.Get(key)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Str returns the value under key only when it is a string.
func (p Parameters) Str(key string) (string, bool) {
	v, ok := p.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Set stores value under key, replacing an existing entry in place.
func (p *Parameters) Set(key string, value any) {
	for i := range *p {
		if (*p)[i].Key == key {
			(*p)[i].Value = value
			return
		}
	}
	*p = append(*p, KeyValue{Key: key, Value: value})
}

// Merge folds other into a copy of p. Keys in other override keys in p;
// new keys append in other's order.
func (p Parameters) Merge(other Parameters) Parameters {
	out := make(Parameters, len(p), len(p)+len(other))
	copy(out, p)
	for _, kv := range other {
		out.Set(kv.Key, kv.Value)
	}
	return out
}

// ToMap flattens the list into a plain map, last write wins.
func (p Parameters) ToMap() map[string]any {
	out := make(map[string]any, len(p))
	for _, kv := range p {
		out[kv.Key] = kv.Value
	}
	return out
}

// MarshalObject serializes the list as a JSON object with keys in
// insertion order. Two identical lists produce byte-identical output.
func (p Parameters) MarshalObject() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, errKey := json.Marshal(kv.Key)
		if errKey != nil {
			return nil, errKey
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, errValue := json.Marshal(kv.Value)
		if errValue != nil {
			return nil, fmt.Errorf("entity: marshal value for %q: %w", kv.Key, errValue)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ParseObject decodes a JSON object into an ordered Parameters list,
// preserving the key order of the document. A non-object value yields
// ErrNotObject.
func ParseObject(data []byte) (Parameters, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Parameters{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	tok, errTok := dec.Token()
	if errTok != nil {
		return nil, fmt.Errorf("entity: parse object: %w", errTok)
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return nil, ErrNotObject
	}

	out := Parameters{}
	for dec.More() {
		keyTok, errKey := dec.Token()
		if errKey != nil {
			return nil, fmt.Errorf("entity: parse object key: %w", errKey)
		}
		key, okKey := keyTok.(string)
		if !okKey {
			return nil, fmt.Errorf("entity: unexpected token %v", keyTok)
		}
		var value any
		if errValue := dec.Decode(&value); errValue != nil {
			return nil, fmt.Errorf("entity: parse value for %q: %w", key, errValue)
		}
		out.Set(key, normalizeNumbers(value))
	}
	if _, errEnd := dec.Token(); errEnd != nil {
		return nil, fmt.Errorf("entity: parse object end: %w", errEnd)
	}
	return out, nil
}

// normalizeNumbers converts json.Number values into float64 so parsed
// parameters compare equal to literals built in code.
func normalizeNumbers(value any) any {
	switch typed := value.(type) {
	case json.Number:
		if f, errFloat := typed.Float64(); errFloat == nil {
			return f
		}
		return typed.String()
	case map[string]any:
		for k, v := range typed {
			typed[k] = normalizeNumbers(v)
		}
		return typed
	case []any:
		for i, v := range typed {
			typed[i] = normalizeNumbers(v)
		}
		return typed
	default:
		return value
	}
}
