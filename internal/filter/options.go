package filter

import "github.com/Geun-Oh/vcilog/internal/entry"

// TextKeys are the fields searched by the include/exclude text options.
var TextKeys = []string{entry.KeyLogLevel, entry.KeyCategory, entry.KeyItem, entry.KeyMessage}

// ItemKeys are the fields searched by the include/exclude item options.
var ItemKeys = []string{entry.KeyItem}

// Options are the user facing filter switches.
type Options struct {
	IncludeText string
	ExcludeText string
	IncludeItem string
	ExcludeItem string

	// Regex treats the texts above as case-insensitive regular expressions,
	// falling back to substring search for invalid patterns.
	Regex bool

	// AllWarnings keeps the frame time warnings that are hidden by default.
	AllWarnings bool

	// OutputSystemStatus keeps the SystemStatus category hidden by default.
	OutputSystemStatus bool

	// SuppressStateSharedVariable hides Item_State and SharedVariable.
	SuppressStateSharedVariable bool
}

// Build turns opts into a Condition. Notifications always pass.
//
// When both include text and include item are given either may match;
// every other switch narrows the selection.
func Build(opts Options) Condition {
	text := includeCondition(TextKeys, opts.IncludeText, opts.Regex)
	item := includeCondition(ItemKeys, opts.IncludeItem, opts.Regex)

	var c Condition
	if opts.IncludeText != "" && opts.IncludeItem != "" {
		c = Or(text, item)
	} else {
		c = And(text, item)
	}

	c = And(c,
		excludeCondition(TextKeys, opts.ExcludeText, opts.Regex),
		excludeCondition(ItemKeys, opts.ExcludeItem, opts.Regex),
	)

	if !opts.AllWarnings {
		c = And(c, Not(OverFrameTimeWarning()))
	}
	if !opts.OutputSystemStatus {
		c = And(c, Not(Category(entry.CategorySystemStatus)))
	}
	if opts.SuppressStateSharedVariable {
		c = And(c, Not(Or(
			Category(entry.CategoryItemState),
			Category(entry.CategorySharedVariable),
		)))
	}

	return Or(c, EntryKind(entry.KindNotification))
}

// includeCondition matches search on keys. An empty search matches anything.
func includeCondition(keys []string, search string, regex bool) Condition {
	switch {
	case search == "":
		return Any()
	case regex:
		return FallbackFieldMatch(keys, search)
	default:
		return FieldInclude(keys, search)
	}
}

// excludeCondition rejects search on keys. An empty search rejects nothing.
func excludeCondition(keys []string, search string, regex bool) Condition {
	if search == "" {
		return Any()
	}
	return Not(includeCondition(keys, search, regex))
}
