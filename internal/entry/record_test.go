package entry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newItemRecord() Record {
	return Record{
		{Key: "UnixTime", Value: "2678450"},
		{Key: "Category", Value: "Item_Print"},
		{Key: "LogLevel", Value: "Debug"},
		{Key: "Item", Value: "foo_vci"},
		{Key: "Message", Value: "write foo_vci/_main.lua"},
		{Key: "CallerFile", Value: "EmbeddedScriptUnitySide.cs"},
		{Key: "CallerLine", Value: int64(262)},
		{Key: "CallerMember", Value: "_NewItem"},
	}
}

func TestParseEnvelopeLogger(t *testing.T) {
	e, ids := ParseEnvelope([]any{int8(2), "logger", []any{newItemRecord()}}, IDMap{})

	assert.Equal(t, 0, ids.Len())
	assert.Equal(t, KindLogger, e.Kind())
	require.True(t, e.HasTimestamp())
	assert.Equal(t, int64(2678450), e.Timestamp().Unix())
	assert.Equal(t, LevelDebug, e.Level())
	assert.Equal(t, CategoryItemPrint, e.Category())
	assert.Equal(t, "write foo_vci/_main.lua", e.Message())
	assert.Equal(t, Fields{
		{Key: "UnixTime", Value: "2678450"},
		{Key: "Category", Value: "Item_Print"},
		{Key: "LogLevel", Value: "Debug"},
		{Key: "Item", Value: "foo_vci"},
		{Key: "Message", Value: "write foo_vci/_main.lua"},
		{Key: "CallerFile", Value: "EmbeddedScriptUnitySide.cs"},
		{Key: "CallerLine", Value: "262"},
		{Key: "CallerMember", Value: "_NewItem"},
	}, e.Fields())
}

func TestParseEnvelopeUsesFirstRecord(t *testing.T) {
	first := Record{{Key: "Message", Value: "first"}}
	second := Record{{Key: "Message", Value: "second"}}

	e, _ := ParseEnvelope([]any{2, "logger", []any{first, second}}, IDMap{})
	assert.Equal(t, "first", e.Message())
}

func TestParseEnvelopeUnsupported(t *testing.T) {
	shapes := []any{
		nil,
		415,
		"text",
		Record{},
		[]any{},
		[]any{2, "logger"},
		[]any{2, "other", []any{Record{}}},
		[]any{2, "logger", []any{}},
		[]any{2, "logger", "not a list"},
		[]any{2, "logger", []any{"not a record"}},
		[]any{2, "logger", []any{[]any{1, 2}}},
	}

	for _, data := range shapes {
		e, ids := ParseEnvelope(data, IDMap{})
		assert.Equal(t, KindNotification, e.Kind(), "%#v", data)
		assert.Equal(t, LevelError, e.Level(), "%#v", data)
		assert.Equal(t, CategoryUnknown, e.Category(), "%#v", data)
		assert.Equal(t, UnsupportedDataFormat, e.Message(), "%#v", data)
		assert.Equal(t, Fields{
			{Key: KeyLogLevel, Value: "Error"},
			{Key: KeyMessage, Value: UnsupportedDataFormat},
		}, e.Fields())
		assert.Equal(t, 0, ids.Len())
	}
}

func TestParseRecordMessageQuotes(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{`"quoted"`, "quoted"},
		{`""`, ""},
		{`"`, `"`},
		{`"half`, `"half`},
		{`""double""`, `"double"`},
		{int64(12), "12"},
	}

	for _, tt := range tests {
		e, _ := ParseRecord(Record{{Key: KeyMessage, Value: tt.in}}, IDMap{})
		raw, _ := e.Fields().Get(KeyMessage)
		assert.Equal(t, tt.want, raw, "%#v", tt.in)
	}

	// Only the Message field is dequoted.
	e, _ := ParseRecord(Record{{Key: KeyItem, Value: `"item"`}}, IDMap{})
	raw, _ := e.Fields().Get(KeyItem)
	assert.Equal(t, `"item"`, raw)
}

func TestParseRecordEmbeddedLevel(t *testing.T) {
	e, _ := ParseRecord(Record{
		{Key: KeyLogLevel, Value: "Debug"},
		{Key: KeyItem, Value: "bar_name"},
		{Key: KeyMessage, Value: "WARN | w_msg"},
	}, IDMap{})

	assert.Equal(t, LevelWarning, e.Level())
	assert.Equal(t, "w_msg", e.Message())
}

func TestParseRecordVciID(t *testing.T) {
	rec := func(id string) Record {
		return Record{{Key: KeyVciID, Value: id}, {Key: KeyMessage, Value: "m"}}
	}

	e1, ids1 := ParseRecord(rec("abcdefgX-1234"), IDMap{})
	assert.Equal(t, "abcdefg", e1.SimpleVciID())
	assert.Equal(t, 1, ids1.Len())

	e2, ids2 := ParseRecord(rec("abcdefgX-1234"), ids1)
	assert.Equal(t, "abcdefg", e2.SimpleVciID())
	assert.True(t, ids1 == ids2)

	e3, ids3 := ParseRecord(rec("abcdefgY-1234"), ids2)
	assert.Equal(t, "abcdefgY-1234", e3.SimpleVciID())
	assert.True(t, ids2 == ids3)

	e4, ids4 := ParseRecord(Record{{Key: KeyMessage, Value: "no id"}}, ids3)
	assert.Equal(t, "", e4.SimpleVciID())
	assert.True(t, ids3 == ids4)
}

func TestParseRecordFromMap(t *testing.T) {
	e, _ := ParseRecord(map[string]any{
		"Message":  "m",
		"LogLevel": "Info",
		"Category": "System",
	}, IDMap{})

	assert.Equal(t, KindLogger, e.Kind())
	assert.Equal(t, LevelInfo, e.Level())
	assert.Equal(t, []string{"Category", "LogLevel", "Message"}, e.Fields().Keys())
}

func TestParseRecordDuplicateKey(t *testing.T) {
	e, _ := ParseRecord(Record{
		{Key: KeyMessage, Value: "a"},
		{Key: KeyItem, Value: "i"},
		{Key: KeyMessage, Value: "b"},
	}, IDMap{})

	assert.Equal(t, []string{KeyMessage, KeyItem}, e.Fields().Keys())
	assert.Equal(t, "b", e.Message())
}

func TestStringify(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "null"},
		{"s", "s"},
		{[]byte("b"), "b"},
		{true, "true"},
		{int8(-3), "-3"},
		{uint16(262), "262"},
		{int64(1) << 40, "1099511627776"},
		{uint64(18446744073709551615), "18446744073709551615"},
		{1.5, "1.5"},
		{float32(0.25), "0.25"},
		{100.0, "100"},
		{math.NaN(), "NaN"},
		{math.Inf(-1), "-Infinity"},
		{[]any{int8(1), "a"}, `[1,"a"]`},
		{Record{{Key: "b", Value: 1}, {Key: "a", Value: "x"}}, `{"b":1,"a":"x"}`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Stringify(tt.in), "%#v", tt.in)
	}
}

func TestUnsupported(t *testing.T) {
	e := Unsupported("number")
	assert.Equal(t, KindNotification, e.Kind())
	assert.Equal(t, LevelError, e.Level())
	assert.Equal(t, UnsupportedDataFormat+" number", e.Message())
}
