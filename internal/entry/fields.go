package entry

import (
	"bytes"
	"encoding/json"
)

// Field is one named, stringified value of a record.
type Field struct {
	Key   string
	Value string
}

// Fields is an ordered set of fields. Keys are unique; insertion order is kept.
type Fields []Field

// Get returns the value stored under key.
func (f Fields) Get(key string) (string, bool) {
	for _, fld := range f {
		if fld.Key == key {
			return fld.Value, true
		}
	}
	return "", false
}

// Keys returns the field names in order.
func (f Fields) Keys() []string {
	keys := make([]string, len(f))
	for i, fld := range f {
		keys[i] = fld.Key
	}
	return keys
}

// Set returns f with key bound to value. An existing key keeps its position.
func (f Fields) Set(key, value string) Fields {
	for i, fld := range f {
		if fld.Key == key {
			out := append(Fields(nil), f...)
			out[i].Value = value
			return out
		}
	}
	return append(f, Field{Key: key, Value: value})
}

// MarshalJSON encodes the fields as a JSON object in field order.
func (f Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, fld := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, fld.Key); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSONString(&buf, fld.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	return writeJSON(buf, s)
}

// writeJSON appends the JSON encoding of v to buf without HTML escaping.
func writeJSON(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encode terminates every value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}
