// Package filter implements the Condition expression tree used to select
// log entries, and the helpers that build it from command line options.
package filter

import (
	"fmt"
	"strings"

	"github.com/Geun-Oh/vcilog/internal/entry"
)

// Kind identifies the variant of a Condition node.
type Kind int

const (
	KindAny Kind = iota
	KindNever
	KindNot
	KindAnd
	KindOr
	KindEntryKind
	KindCategory
	KindOverFrameTimeWarning
	KindFieldEqual
	KindFieldInclude
	KindFieldMatch
)

var kindNames = [...]string{
	KindAny:                  "any",
	KindNever:                "never",
	KindNot:                  "not",
	KindAnd:                  "and",
	KindOr:                   "or",
	KindEntryKind:            "entry-kind",
	KindCategory:             "category",
	KindOverFrameTimeWarning: "over-frame-time-warning",
	KindFieldEqual:           "field-equal",
	KindFieldInclude:         "field-include",
	KindFieldMatch:           "field-match",
}

// String returns the string representation of a Kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// FrameTimeWarningPrefix starts the System message emitted when a script
// exceeds its frame budget.
const FrameTimeWarningPrefix = "frame: script not return"

// Condition is an immutable boolean expression over an entry.
//
// Conditions are values: build them with the factories and the Not, And and
// Or constructors, which simplify as they build. The zero value is Any.
// A Condition may be evaluated from multiple goroutines.
type Condition struct {
	kind      Kind
	children  []Condition
	entryKind entry.Kind
	category  entry.Category
	text      *textMatch
}

// Any matches every entry.
func Any() Condition { return Condition{kind: KindAny} }

// Never matches no entry.
func Never() Condition { return Condition{kind: KindNever} }

// OverFrameTimeWarning matches the System warnings about scripts that did not
// return within a frame.
func OverFrameTimeWarning() Condition { return Condition{kind: KindOverFrameTimeWarning} }

// EntryKind matches entries of kind k.
func EntryKind(k entry.Kind) Condition {
	return Condition{kind: KindEntryKind, entryKind: k}
}

// Category matches entries of category c.
func Category(c entry.Category) Condition {
	return Condition{kind: KindCategory, category: c}
}

// Not negates c. Double negation cancels and Any/Never swap.
func Not(c Condition) Condition {
	switch c.kind {
	case KindNot:
		return c.children[0]
	case KindAny:
		return Never()
	case KindNever:
		return Any()
	}
	return Condition{kind: KindNot, children: []Condition{c}}
}

// And matches when every operand matches. Nested conjunctions are flattened,
// Any operands are dropped and a Never operand absorbs the expression.
// And() is Any; a single remaining operand is returned as is.
func And(conds ...Condition) Condition {
	return combine(KindAnd, KindAny, KindNever, conds)
}

// Or matches when some operand matches. It is the dual of And: Never operands
// are dropped, an Any operand absorbs the expression and Or() is Never.
func Or(conds ...Condition) Condition {
	return combine(KindOr, KindNever, KindAny, conds)
}

func combine(op, identity, absorbing Kind, conds []Condition) Condition {
	operands := make([]Condition, 0, len(conds))
	for _, c := range conds {
		if c.kind == op {
			operands = append(operands, c.children...)
		} else {
			operands = append(operands, c)
		}
	}

	kept := operands[:0]
	for _, c := range operands {
		switch c.kind {
		case absorbing:
			return Condition{kind: absorbing}
		case identity:
		default:
			kept = append(kept, c)
		}
	}

	switch len(kept) {
	case 0:
		return Condition{kind: identity}
	case 1:
		return kept[0]
	}
	return Condition{kind: op, children: kept}
}

// Kind returns the variant of c.
func (c Condition) Kind() Kind { return c.kind }

// Children returns the operands of Not, And and Or nodes.
func (c Condition) Children() []Condition { return c.children }

// Evaluate reports whether e satisfies c. And and Or short-circuit left to right.
func (c Condition) Evaluate(e *entry.Entry) bool {
	switch c.kind {
	case KindAny:
		return true
	case KindNever:
		return false
	case KindNot:
		return !c.children[0].Evaluate(e)
	case KindAnd:
		for _, child := range c.children {
			if !child.Evaluate(e) {
				return false
			}
		}
		return true
	case KindOr:
		for _, child := range c.children {
			if child.Evaluate(e) {
				return true
			}
		}
		return false
	case KindEntryKind:
		return e.Kind() == c.entryKind
	case KindCategory:
		return e.Category() == c.category
	case KindOverFrameTimeWarning:
		return e.Category() == entry.CategorySystem &&
			strings.HasPrefix(e.Message(), FrameTimeWarningPrefix)
	case KindFieldEqual, KindFieldInclude, KindFieldMatch:
		return c.text.evaluate(c.kind, e)
	}
	return false
}

// Shape is the kind tree of a Condition, without parameters.
type Shape struct {
	Kind     Kind
	Children []Shape
}

// Shape returns the kind tree of c.
func (c Condition) Shape() Shape {
	s := Shape{Kind: c.kind}
	for _, child := range c.children {
		s.Children = append(s.Children, child.Shape())
	}
	return s
}

// String renders c as an s-expression.
func (c Condition) String() string {
	var sb strings.Builder
	c.write(&sb)
	return sb.String()
}

func (c Condition) write(sb *strings.Builder) {
	switch c.kind {
	case KindAny, KindNever, KindOverFrameTimeWarning:
		sb.WriteString(c.kind.String())
		return
	}

	sb.WriteByte('(')
	sb.WriteString(c.kind.String())
	switch c.kind {
	case KindEntryKind:
		fmt.Fprintf(sb, " %s", c.entryKind)
	case KindCategory:
		fmt.Fprintf(sb, " %q", string(c.category))
	case KindFieldEqual, KindFieldInclude, KindFieldMatch:
		sb.WriteByte(' ')
		sb.WriteString(c.text.String())
	default:
		for _, child := range c.children {
			sb.WriteByte(' ')
			child.write(sb)
		}
	}
	sb.WriteByte(')')
}
