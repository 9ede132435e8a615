package entry

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

// EnvelopeTag is the second element of a logger envelope.
const EnvelopeTag = "logger"

// Pair is one key/value of a decoded wire map.
type Pair struct {
	Key   string
	Value any
}

// Record is a decoded wire map that keeps the sender's key order.
type Record []Pair

// MarshalJSON encodes the record as a JSON object in key order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, p.Key); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSON(&buf, p.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ParseEnvelope interprets a decoded frame of the form
// [version, "logger", [record, ...]]. Only the first record is used.
// Any other shape yields an "unsupported data format" notification.
func ParseEnvelope(data any, ids IDMap) (Entry, IDMap) {
	if list, ok := data.([]any); ok && len(list) >= 3 {
		if tag, ok := list[1].(string); ok && tag == EnvelopeTag {
			if records, ok := list[2].([]any); ok && len(records) >= 1 {
				return ParseRecord(records[0], ids)
			}
		}
	}
	return Unsupported(""), ids
}

// ParseRecord builds a Logger entry from a key/value node. Every value is
// stringified; a quoted Message string loses one pair of surrounding quotes.
// A VciId field is shortened against ids and the updated map is returned.
func ParseRecord(node any, ids IDMap) (Entry, IDMap) {
	var rec Record
	switch v := node.(type) {
	case Record:
		rec = v
	case map[string]any:
		rec = recordFromMap(v)
	default:
		return Unsupported(""), ids
	}

	var fields Fields
	for _, p := range rec {
		s := Stringify(p.Value)
		if str, ok := p.Value.(string); ok && p.Key == KeyMessage {
			s = unquote(str)
		}
		fields = fields.Set(p.Key, s)
	}

	var simple string
	if raw, ok := fields.Get(KeyVciID); ok {
		simple, ids = SimplifyID(raw, ids)
	}
	return Make(KindLogger, fields, simple), ids
}

// Unsupported returns the notification emitted for payloads that cannot be
// interpreted. A non-empty detail is appended to the message.
func Unsupported(detail string) Entry {
	msg := UnsupportedDataFormat
	if detail != "" {
		msg += " " + detail
	}
	return Notification(LevelError, msg)
}

// Stringify renders a decoded wire value as field text.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.FormatInt(int64(x), 10)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return formatFloat(float64(x), 32)
	case float64:
		return formatFloat(x, 64)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case Record, []any, map[string]any:
		var buf bytes.Buffer
		if err := writeJSON(&buf, x); err != nil {
			return fmt.Sprint(x)
		}
		return buf.String()
	default:
		return fmt.Sprint(x)
	}
}

func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, bits)
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func recordFromMap(m map[string]any) Record {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rec := make(Record, 0, len(keys))
	for _, k := range keys {
		rec = append(rec, Pair{Key: k, Value: m[k]})
	}
	return rec
}
