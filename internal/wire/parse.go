package wire

import (
	"reflect"

	"github.com/Geun-Oh/vcilog/internal/entry"
)

// Parse turns one received payload into an entry.
//
// Binary payloads are decoded and parsed as a logger envelope; a decoding
// failure becomes an "unsupported data format" notification carrying the
// error. Text payloads are reported verbatim as error notifications. Any
// other value is unsupported and named by its type.
func Parse(data any, ids entry.IDMap) (entry.Entry, entry.IDMap) {
	switch x := data.(type) {
	case []byte:
		v, err := Decode(x)
		if err != nil {
			return entry.Unsupported(err.Error()), ids
		}
		return entry.ParseEnvelope(v, ids)
	case string:
		return entry.Notification(entry.LevelError, x), ids
	}
	return entry.Unsupported(TypeOf(data)), ids
}

// TypeOf names the dynamic type of v the way a script runtime would:
// "undefined", "boolean", "number", "bigint", "string", "function" or "object".
func TypeOf(v any) string {
	if v == nil {
		return "undefined"
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Int64, reflect.Uint64:
		return "bigint"
	case reflect.String:
		return "string"
	case reflect.Func:
		return "function"
	}
	return "object"
}
