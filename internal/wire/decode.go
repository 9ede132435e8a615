// Package wire decodes the msgpack frames sent by the logger console.
package wire

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"github.com/Geun-Oh/vcilog/internal/entry"
)

// maxPrealloc bounds the capacity reserved from a length header before any
// element has been read.
const maxPrealloc = 1024

// Decoder reads consecutive msgpack values from a stream. Maps decode into
// entry.Record so the sender's key order survives; arrays decode into []any.
type Decoder struct {
	dec *msgpack.Decoder
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: msgpack.NewDecoder(r)}
}

// Next decodes the next value. It returns io.EOF when the stream ends
// cleanly between values.
func (d *Decoder) Next() (any, error) {
	if _, err := d.dec.PeekCode(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, err
	}
	v, err := d.value()
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return v, err
}

// Decode decodes the first value of data. Trailing bytes are ignored.
func Decode(data []byte) (any, error) {
	v, err := NewDecoder(bytes.NewReader(data)).Next()
	if errors.Is(err, io.EOF) {
		return nil, io.ErrUnexpectedEOF
	}
	return v, err
}

func (d *Decoder) value() (any, error) {
	c, err := d.dec.PeekCode()
	if err != nil {
		return nil, err
	}

	switch {
	case msgpcode.IsFixedMap(c), c == msgpcode.Map16, c == msgpcode.Map32:
		return d.record()
	case msgpcode.IsFixedArray(c), c == msgpcode.Array16, c == msgpcode.Array32:
		return d.array()
	}
	return d.dec.DecodeInterface()
}

func (d *Decoder) record() (entry.Record, error) {
	n, err := d.dec.DecodeMapLen()
	if err != nil {
		return nil, err
	}
	rec := make(entry.Record, 0, min(n, maxPrealloc))
	for i := 0; i < n; i++ {
		k, err := d.value()
		if err != nil {
			return nil, fmt.Errorf("map key %d: %w", i, err)
		}
		v, err := d.value()
		if err != nil {
			return nil, fmt.Errorf("map value %d: %w", i, err)
		}
		rec = append(rec, entry.Pair{Key: entry.Stringify(k), Value: v})
	}
	return rec, nil
}

func (d *Decoder) array() ([]any, error) {
	n, err := d.dec.DecodeArrayLen()
	if err != nil {
		return nil, err
	}
	list := make([]any, 0, min(n, maxPrealloc))
	for i := 0; i < n; i++ {
		v, err := d.value()
		if err != nil {
			return nil, fmt.Errorf("array element %d: %w", i, err)
		}
		list = append(list, v)
	}
	return list, nil
}
