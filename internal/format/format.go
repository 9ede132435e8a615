// Package format renders entries as single-line text.
package format

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Geun-Oh/vcilog/internal/entry"
)

// Formatter renders one entry as one line, without a trailing newline.
type Formatter func(e *entry.Entry) string

// FieldStyler decorates the text of one field.
type FieldStyler func(value, key string, e *entry.Entry) string

// Output format names accepted by ByName.
const (
	NameDefault    = "default"
	NameFullText   = "full_text"
	NameJSONRecord = "json_record"
)

// Names lists the output formats in help order.
var Names = []string{NameDefault, NameJSONRecord, NameFullText}

// DefaultFields are the fields shown by the default format, in order.
var DefaultFields = []string{
	entry.KeyUnixTime,
	entry.KeyLogLevel,
	entry.KeyCategory,
	entry.KeyItem,
	entry.KeyVciID,
	entry.KeyMessage,
}

const separator = " | "

// ReduceFields folds the text of keys into acc, skipping keys the entry
// does not have.
func ReduceFields[T any](e *entry.Entry, keys []string, acc T, collect func(acc T, value, key string) T) T {
	for _, key := range keys {
		if value, ok := entry.FieldText(key, e); ok {
			acc = collect(acc, value, key)
		}
	}
	return acc
}

// Plain returns the field text unchanged.
func Plain(value, _ string, _ *entry.Entry) string { return value }

// Text joins the text of keys with " | ".
func Text(keys []string, style FieldStyler) Formatter {
	keys = append([]string(nil), keys...)
	return func(e *entry.Entry) string {
		parts := ReduceFields(e, keys, make([]string, 0, len(keys)), func(acc []string, value, key string) []string {
			return append(acc, style(value, key, e))
		})
		return strings.Join(parts, separator)
	}
}

// FullText renders every raw field of the entry, in record order, as
// "Key = Value" joined with " | ".
func FullText(style FieldStyler) Formatter {
	return func(e *entry.Entry) string {
		keys := e.Fields().Keys()
		parts := ReduceFields(e, keys, make([]string, 0, len(keys)), func(acc []string, value, key string) []string {
			return append(acc, key+" = "+style(value, key, e))
		})
		return strings.Join(parts, separator)
	}
}

// JSONRecord renders the raw fields as a JSON object in record order.
// It is never styled.
func JSONRecord(e *entry.Entry) string {
	b, err := e.Fields().MarshalJSON()
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Default is the plain default format.
var Default = Text(DefaultFields, Plain)

// ByName returns the formatter for name. Styled formatters decorate the level
// using the palette p; a nil palette yields plain output.
func ByName(name string, p Palette) (Formatter, error) {
	style := Plain
	if p != nil {
		style = p.Style
	}

	switch strings.ToLower(name) {
	case "", NameDefault:
		return Text(DefaultFields, style), nil
	case NameFullText:
		return FullText(style), nil
	case NameJSONRecord:
		return JSONRecord, nil
	}
	return nil, fmt.Errorf("format: unknown output format %q (want one of %s)", name, strings.Join(Names, ", "))
}

// Palette maps a rounded level to the style of its label.
type Palette map[entry.Level]lipgloss.Style

// NewPalette builds the severity palette on r. A nil renderer uses the
// lipgloss default renderer.
func NewPalette(r *lipgloss.Renderer) Palette {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	alarm := r.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("1"))
	return Palette{
		entry.LevelFatal:   alarm,
		entry.LevelError:   alarm,
		entry.LevelWarning: r.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("11")),
		entry.LevelInfo:    r.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10")),
	}
}

// Style decorates the LogLevel field according to the entry's rounded level.
// Other fields and levels without a style are returned unchanged.
func (p Palette) Style(value, key string, e *entry.Entry) string {
	if key != entry.KeyLogLevel {
		return value
	}
	if s, ok := p[e.Level().Round()]; ok {
		return s.Render(value)
	}
	return value
}
