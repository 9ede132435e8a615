package wire

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Geun-Oh/vcilog/internal/entry"
)

func TestDecodeKeepsKeyOrder(t *testing.T) {
	rec := entry.Record{
		{Key: "Message", Value: "m"},
		{Key: "LogLevel", Value: "Info"},
		{Key: "Category", Value: "System"},
		{Key: "UnixTime", Value: 1700000000},
	}
	data, err := Encode(rec)
	require.NoError(t, err)

	v, err := Decode(data)
	require.NoError(t, err)

	got, ok := v.(entry.Record)
	require.True(t, ok, "got %T", v)
	keys := make([]string, 0, len(got))
	for _, p := range got {
		keys = append(keys, p.Key)
	}
	assert.Equal(t, []string{"Message", "LogLevel", "Category", "UnixTime"}, keys)
	assert.Equal(t, "1700000000", entry.Stringify(got[3].Value))
}

func TestDecodeNested(t *testing.T) {
	data, err := Encode(Envelope(entry.Record{
		{Key: "Message", Value: []any{1, "two", entry.Record{{Key: "k", Value: true}}}},
	}))
	require.NoError(t, err)

	v, err := Decode(data)
	require.NoError(t, err)

	list, ok := v.([]any)
	require.True(t, ok)
	require.Len(t, list, 3)
	assert.Equal(t, entry.EnvelopeTag, list[1])

	records := list[2].([]any)
	rec := records[0].(entry.Record)
	assert.Equal(t, `[1,"two",{"k":true}]`, entry.Stringify(rec[0].Value))
}

func TestDecodeGenericMapKeepsOrder(t *testing.T) {
	// Maps produced by another encoder are still read as records.
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	require.NoError(t, enc.EncodeMapLen(2))
	require.NoError(t, enc.EncodeString("b"))
	require.NoError(t, enc.EncodeInt(1))
	require.NoError(t, enc.EncodeInt(7))
	require.NoError(t, enc.EncodeString("seven"))

	v, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, entry.Record{
		{Key: "b", Value: int8(1)},
		{Key: "7", Value: "seven"},
	}, v)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = Decode([]byte{0x93})
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = Decode([]byte{0xc1})
	assert.Error(t, err)
}

func TestDecoderStream(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	require.NoError(t, enc.Encode("a"))
	require.NoError(t, enc.Encode(entry.Record{{Key: "x", Value: nil}}))
	require.NoError(t, enc.Encode([]any{}))

	dec := NewDecoder(&buf)

	v, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	v, err = dec.Next()
	require.NoError(t, err)
	assert.Equal(t, entry.Record{{Key: "x", Value: nil}}, v)

	v, err = dec.Next()
	require.NoError(t, err)
	assert.Equal(t, []any{}, v)

	_, err = dec.Next()
	assert.Equal(t, io.EOF, err)
}

func TestDecoderTruncatedStream(t *testing.T) {
	data, err := Encode(entry.Record{{Key: "Message", Value: "hello"}})
	require.NoError(t, err)

	dec := NewDecoder(bytes.NewReader(data[:len(data)-2]))
	_, err = dec.Next()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestParseUnsupported(t *testing.T) {
	e, ids := Parse(415, entry.IDMap{})

	assert.Equal(t, entry.KindNotification, e.Kind())
	assert.Equal(t, entry.CategoryUnknown, e.Category())
	assert.Equal(t, entry.LevelError, e.Level())
	assert.Equal(t, entry.UnsupportedDataFormat+" number", e.Message())
	assert.Equal(t, 0, ids.Len())
}

func TestParseText(t *testing.T) {
	e, _ := Parse("baz_str_log", entry.IDMap{})

	assert.Equal(t, entry.KindNotification, e.Kind())
	assert.Equal(t, entry.CategoryUnknown, e.Category())
	assert.Equal(t, entry.LevelError, e.Level())
	assert.Equal(t, "baz_str_log", e.Message())
}

func TestParseBinary(t *testing.T) {
	data, err := Encode(Envelope(entry.Record{
		{Key: "LogLevel", Value: "Trace"},
		{Key: "Category", Value: "Item_Print"},
		{Key: "Message", Value: "foo_vci"},
	}))
	require.NoError(t, err)

	e, _ := Parse(data, entry.IDMap{})

	assert.Equal(t, entry.KindLogger, e.Kind())
	assert.Equal(t, entry.CategoryItemPrint, e.Category())
	assert.Equal(t, entry.LevelTrace, e.Level())
	assert.Equal(t, "foo_vci", e.Message())
	assert.Equal(t, []string{"LogLevel", "Category", "Message"}, e.Fields().Keys())
}

func TestParseBinaryTimestampAndID(t *testing.T) {
	data, err := Encode(Envelope(entry.Record{
		{Key: "LogLevel", Value: "Debug"},
		{Key: "Category", Value: "Item_Print"},
		{Key: "UnixTime", Value: "2678450"},
		{Key: "VciId", Value: "abcd-ef01-2345"},
		{Key: "Message", Value: `"write x"`},
	}))
	require.NoError(t, err)

	e, ids := Parse(data, entry.IDMap{})

	assert.Equal(t, entry.LevelDebug, e.Level())
	assert.True(t, e.HasTimestamp())
	assert.Equal(t, time.Unix(2678450, 0), e.Timestamp())
	assert.Equal(t, "write x", e.Message())
	assert.Equal(t, "abcdef0", e.SimpleVciID())
	assert.Equal(t, 1, ids.Len())

	_, again := Parse(data, ids)
	assert.Equal(t, ids, again)
}

func TestParseDecodeError(t *testing.T) {
	e, _ := Parse([]byte{0x93}, entry.IDMap{})

	assert.Equal(t, entry.KindNotification, e.Kind())
	assert.Equal(t, entry.CategoryUnknown, e.Category())
	assert.Equal(t, entry.LevelError, e.Level())
	assert.Contains(t, e.Message(), entry.UnsupportedDataFormat+" ")
}

func TestParseHugeLengthHeader(t *testing.T) {
	prefix := []byte{0x93, 0x02, 0xa6, 'l', 'o', 'g', 'g', 'e', 'r', 0x91}
	headers := map[string][]byte{
		"map32":   {0xdf, 0xff, 0xff, 0xff, 0xff},
		"array32": {0xdd, 0xff, 0xff, 0xff, 0xff},
		"map16":   {0xde, 0xff, 0xff},
	}
	for name, header := range headers {
		t.Run(name, func(t *testing.T) {
			data := append(append([]byte{}, prefix...), header...)
			e, ids := Parse(data, entry.IDMap{})

			assert.Equal(t, entry.KindNotification, e.Kind())
			assert.Equal(t, entry.LevelError, e.Level())
			assert.Contains(t, e.Message(), entry.UnsupportedDataFormat+" ")
			assert.Equal(t, 0, ids.Len())
		})
	}

	_, err := Decode([]byte{0xdd, 0xff, 0xff, 0xff, 0xff, 0x01})
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestParseNonEnvelope(t *testing.T) {
	data, err := Encode([]any{2, "other", []any{}})
	require.NoError(t, err)

	e, _ := Parse(data, entry.IDMap{})
	assert.Equal(t, entry.KindNotification, e.Kind())
	assert.Equal(t, entry.UnsupportedDataFormat, e.Message())
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		v    any
		want string
	}{
		{nil, "undefined"},
		{true, "boolean"},
		{415, "number"},
		{1.5, "number"},
		{int64(1), "bigint"},
		{"s", "string"},
		{func() {}, "function"},
		{[]int{1}, "object"},
		{map[string]int{}, "object"},
		{struct{}{}, "object"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TypeOf(tt.v), "%T", tt.v)
	}
}
