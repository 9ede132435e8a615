package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Geun-Oh/vcilog/internal/entry"
)

// textMatch tests the text of a set of fields. The search text is folded
// once at construction; the pattern, when set, is compiled once.
type textMatch struct {
	keys    []string
	search  string
	fold    bool
	pattern *regexp.Regexp
}

func (m *textMatch) evaluate(kind Kind, e *entry.Entry) bool {
	for _, key := range m.keys {
		value, ok := entry.FieldText(key, e)
		if ok && m.test(kind, value) {
			return true
		}
	}
	return false
}

func (m *textMatch) test(kind Kind, value string) bool {
	switch kind {
	case KindFieldEqual:
		return m.mapText(strings.TrimSpace(value)) == m.search
	case KindFieldInclude:
		return strings.Contains(m.mapText(value), m.search)
	case KindFieldMatch:
		return m.pattern.MatchString(value)
	}
	return false
}

func (m *textMatch) String() string {
	arg := fmt.Sprintf("%q", m.search)
	if m.pattern != nil {
		arg = "/" + m.pattern.String() + "/"
	} else if m.fold {
		arg += "i"
	}
	return fmt.Sprintf("[%s] %s", strings.Join(m.keys, ","), arg)
}

func (m *textMatch) mapText(s string) string {
	if m.fold {
		return strings.ToLower(s)
	}
	return s
}

func textCondition(kind Kind, keys []string, m *textMatch) Condition {
	m.keys = append([]string(nil), keys...)
	m.search = m.mapText(m.search)
	return Condition{kind: kind, text: m}
}

// FieldEqual matches when the trimmed text of any of keys equals search,
// ignoring case.
func FieldEqual(keys []string, search string) Condition {
	return textCondition(KindFieldEqual, keys, &textMatch{search: search, fold: true})
}

// CaseSensitiveFieldEqual is FieldEqual without case folding.
func CaseSensitiveFieldEqual(keys []string, search string) Condition {
	return textCondition(KindFieldEqual, keys, &textMatch{search: search})
}

// FieldInclude matches when the text of any of keys contains search,
// ignoring case.
func FieldInclude(keys []string, search string) Condition {
	return textCondition(KindFieldInclude, keys, &textMatch{search: search, fold: true})
}

// CaseSensitiveFieldInclude is FieldInclude without case folding.
func CaseSensitiveFieldInclude(keys []string, search string) Condition {
	return textCondition(KindFieldInclude, keys, &textMatch{search: search})
}

// FieldMatch matches when the text of any of keys matches pattern.
func FieldMatch(keys []string, pattern *regexp.Regexp) Condition {
	return textCondition(KindFieldMatch, keys, &textMatch{pattern: pattern})
}

// FallbackFieldMatch compiles pattern case-insensitively and behaves as
// FieldMatch. When pattern is not a valid expression it degrades to
// FieldInclude on the literal text.
func FallbackFieldMatch(keys []string, pattern string) Condition {
	return fallbackFieldMatch(keys, pattern, false)
}

// CaseSensitiveFallbackFieldMatch is FallbackFieldMatch without case folding.
func CaseSensitiveFallbackFieldMatch(keys []string, pattern string) Condition {
	return fallbackFieldMatch(keys, pattern, true)
}

func fallbackFieldMatch(keys []string, pattern string, caseSensitive bool) Condition {
	expr := pattern
	if !caseSensitive {
		expr = "(?i)" + pattern
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		if caseSensitive {
			return CaseSensitiveFieldInclude(keys, pattern)
		}
		return FieldInclude(keys, pattern)
	}
	return FieldMatch(keys, re)
}
