package entry

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Level represents log severity. Lower values are more severe.
// Any integer is a valid Level; the named constants are the canonical buckets.
type Level int

const (
	LevelFatal   Level = 100
	LevelError   Level = 200
	LevelWarning Level = 300
	LevelInfo    Level = 400
	LevelDebug   Level = 500
	LevelTrace   Level = 600
)

// Levels lists the canonical levels from most to least severe.
var Levels = []Level{LevelFatal, LevelError, LevelWarning, LevelInfo, LevelDebug, LevelTrace}

var labelLevels = map[string]Level{
	"fatal":   LevelFatal,
	"error":   LevelError,
	"warning": LevelWarning,
	"warn":    LevelWarning,
	"info":    LevelInfo,
	"debug":   LevelDebug,
	"trace":   LevelTrace,
}

var levelLabels = map[Level]string{
	LevelFatal:   "Fatal",
	LevelError:   "Error",
	LevelWarning: "Warning",
	LevelInfo:    "Info",
	LevelDebug:   "Debug",
	LevelTrace:   "Trace",
}

var integerLabel = regexp.MustCompile(`^[+-]?\d+$`)

// String returns the canonical label, or the decimal value for non-canonical levels.
func (l Level) String() string {
	if s, ok := levelLabels[l]; ok {
		return s
	}
	return strconv.Itoa(int(l))
}

// IsCanonical reports whether l is one of the six named buckets.
func (l Level) IsCanonical() bool {
	_, ok := levelLabels[l]
	return ok
}

// ParseLevel converts a label to a Level. Case-insensitive.
// Non-zero integer literals are accepted as-is. The boolean is false when the
// text names no level, including the empty string and any spelling of zero.
func ParseLevel(s string) (Level, bool) {
	if s == "" {
		return 0, false
	}
	if l, ok := labelLevels[strings.ToLower(s)]; ok {
		return l, true
	}
	if integerLabel.MatchString(s) {
		n, err := strconv.Atoi(s)
		if err != nil || n == 0 {
			return 0, false
		}
		return Level(n), true
	}
	return 0, false
}

// LevelLabel renders a possibly fractional or non-finite severity.
// Canonical values use their label; anything else is truncated toward zero,
// with NaN and infinities rendering as "0".
func LevelLabel(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		if s, ok := levelLabels[Level(f)]; ok {
			return s
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "0"
	}
	return strconv.FormatInt(int64(math.Trunc(f)), 10)
}

// Round snaps l to the nearest canonical bucket at or above it,
// clamped into [LevelFatal, LevelTrace].
func (l Level) Round() Level {
	return RoundLevel(float64(l))
}

// RoundLevel is Round for arbitrary numbers. Non-finite input maps to LevelTrace.
func RoundLevel(f float64) Level {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return LevelTrace
	}
	r := math.Ceil(f/100) * 100
	switch {
	case r < float64(LevelFatal):
		return LevelFatal
	case r > float64(LevelTrace):
		return LevelTrace
	}
	return Level(r)
}
