// Package entry defines the canonical log Entry used throughout the vcilog pipeline,
// together with the severity model and the wire record normalization.
package entry

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind is the coarse origin of an Entry.
type Kind int

const (
	KindUnknown Kind = iota
	KindLogger
	KindText
	KindNotification
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	switch k {
	case KindLogger:
		return "logger"
	case KindText:
		return "text"
	case KindNotification:
		return "notification"
	default:
		return "unknown"
	}
}

// Category is the application subsystem that emitted a record.
// Unknown strings are legal and pass through unchanged.
type Category string

const (
	CategoryUnknown         Category = ""
	CategorySystem          Category = "System"
	CategorySystemStatus    Category = "SystemStatus"
	CategoryItemNew         Category = "Item_New"
	CategoryItemDestroy     Category = "Item_Destroy"
	CategoryItemScriptError Category = "Item_ScriptError"
	CategoryItemUnityError  Category = "Item_UnityError"
	CategoryItemPrint       Category = "Item_Print"
	CategoryItemState       Category = "Item_State"
	CategorySharedVariable  Category = "SharedVariable"
)

// Well-known field names of a logger record.
const (
	KeyUnixTime     = "UnixTime"
	KeyCategory     = "Category"
	KeyLogLevel     = "LogLevel"
	KeyItem         = "Item"
	KeyVciID        = "VciId"
	KeyMessage      = "Message"
	KeyCallerFile   = "CallerFile"
	KeyCallerLine   = "CallerLine"
	KeyCallerMember = "CallerMember"
)

// UnsupportedDataFormat is the message of entries synthesized for payloads
// that could not be interpreted.
const UnsupportedDataFormat = "[Unsupported data format]"

// ClockFormat is the layout of the UnixTime field text.
const ClockFormat = "15:04:05"

// UnsetClock is the UnixTime field text of an entry without a timestamp.
const UnsetClock = "--:--:--"

var (
	pipedLevel     = regexp.MustCompile(`^([a-zA-Z]+)\s?\|\s?`)
	bracketedLevel = regexp.MustCompile(`^\[([a-zA-Z]+)\]`)
	leadingInteger = regexp.MustCompile(`^\s*[+-]?\d+`)
)

// Entry is one normalized log record. It is immutable once built.
type Entry struct {
	kind         Kind
	timestamp    time.Time
	hasTimestamp bool
	level        Level
	category     Category
	message      string
	simpleVciID  string
	fields       Fields
}

func (e Entry) Kind() Kind { return e.kind }

// Timestamp returns the record time. It is the zero time when HasTimestamp is false.
func (e Entry) Timestamp() time.Time { return e.timestamp }

func (e Entry) HasTimestamp() bool { return e.hasTimestamp }

func (e Entry) Level() Level { return e.level }

func (e Entry) Category() Category { return e.category }

// Message returns the message after embedded level extraction.
func (e Entry) Message() string { return e.message }

// SimpleVciID returns the shortened VciId, or "" when none was resolved.
func (e Entry) SimpleVciID() string { return e.simpleVciID }

// Fields returns the original fields. The slice must not be modified.
func (e Entry) Fields() Fields { return e.fields }

// Make builds an Entry from stringified fields.
//
// The timestamp comes from UnixTime (seconds), the category from Category and
// the level from LogLevel, defaulting to LevelDebug. Logger entries at Debug
// level may carry their real level as a message prefix ("WARN | msg" or
// "[WARN]msg"), which then replaces the level and is stripped from the message.
func Make(kind Kind, fields Fields, simpleVciID string) Entry {
	e := Entry{
		kind:        kind,
		level:       LevelDebug,
		category:    CategoryUnknown,
		simpleVciID: simpleVciID,
		fields:      append(Fields(nil), fields...),
	}

	if s, ok := fields.Get(KeyUnixTime); ok {
		e.timestamp, e.hasTimestamp = parseUnixTime(s)
	}
	if s, ok := fields.Get(KeyCategory); ok {
		e.category = Category(s)
	}
	if s, ok := fields.Get(KeyLogLevel); ok {
		if l, ok := ParseLevel(s); ok {
			e.level = l
		}
	}

	msg, ok := fields.Get(KeyMessage)
	e.message = msg
	if ok && msg != "" && kind == KindLogger && e.level == LevelDebug {
		e.level, e.message = messageLevel(msg, e.level)
	}
	return e
}

// FromText builds an entry carrying only a level and a message.
func FromText(kind Kind, level Level, text string) Entry {
	return Make(kind, Fields{
		{Key: KeyLogLevel, Value: level.String()},
		{Key: KeyMessage, Value: text},
	}, "")
}

// Notification builds a locally synthesized entry.
func Notification(level Level, text string) Entry {
	return FromText(KindNotification, level, text)
}

// FieldText returns the display text of a field. Derived fields (level,
// message, category, time, VciId) render their normalized value; the level is
// always available. Other keys return the raw value. The boolean is false
// when the entry has no such field.
func FieldText(key string, e *Entry) (string, bool) {
	if key == KeyLogLevel {
		return e.level.String(), true
	}

	raw, ok := e.fields.Get(key)
	if !ok {
		return "", false
	}

	switch key {
	case KeyMessage:
		return e.message, true
	case KeyCategory:
		return string(e.category), true
	case KeyUnixTime:
		if !e.hasTimestamp {
			return UnsetClock, true
		}
		return e.timestamp.Format(ClockFormat), true
	case KeyVciID:
		if e.simpleVciID != "" {
			return e.simpleVciID, true
		}
		return raw, true
	default:
		return raw, true
	}
}

func parseUnixTime(s string) (time.Time, bool) {
	m := leadingInteger.FindString(s)
	if m == "" {
		return time.Time{}, false
	}
	sec, err := strconv.ParseInt(strings.TrimSpace(m), 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(sec, 0), true
}

func messageLevel(msg string, fallback Level) (Level, string) {
	m := pipedLevel.FindStringSubmatch(msg)
	if m == nil {
		m = bracketedLevel.FindStringSubmatch(msg)
	}
	if m != nil {
		if l, ok := ParseLevel(m[1]); ok {
			return l, msg[len(m[0]):]
		}
	}
	return fallback, msg
}
