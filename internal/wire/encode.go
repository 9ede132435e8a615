package wire

import (
	"bytes"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/Geun-Oh/vcilog/internal/entry"
)

// Encoder writes msgpack values. entry.Record values are written as maps in
// record order.
type Encoder struct {
	enc *msgpack.Encoder
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{enc: msgpack.NewEncoder(w)}
}

// Encode writes one value.
func (e *Encoder) Encode(v any) error {
	switch x := v.(type) {
	case entry.Record:
		if err := e.enc.EncodeMapLen(len(x)); err != nil {
			return err
		}
		for _, p := range x {
			if err := e.enc.EncodeString(p.Key); err != nil {
				return err
			}
			if err := e.Encode(p.Value); err != nil {
				return err
			}
		}
		return nil
	case []any:
		if err := e.enc.EncodeArrayLen(len(x)); err != nil {
			return err
		}
		for _, item := range x {
			if err := e.Encode(item); err != nil {
				return err
			}
		}
		return nil
	}
	return e.enc.Encode(v)
}

// Encode returns the msgpack encoding of v.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Envelope wraps rec in the logger envelope understood by entry.ParseEnvelope.
func Envelope(rec entry.Record) []any {
	return []any{2, entry.EnvelopeTag, []any{rec}}
}
