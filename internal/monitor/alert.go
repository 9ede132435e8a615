package monitor

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/Geun-Oh/vcilog/internal/entry"
	"github.com/Geun-Oh/vcilog/internal/filter"
)

// AlertRule is a named condition counted every time an entry satisfies it.
type AlertRule struct {
	Name      string
	Condition filter.Condition
	Count     int // number of times triggered
}

// AlertEngine evaluates entries against a set of alert rules.
type AlertEngine struct {
	mu    sync.Mutex
	rules []*AlertRule
}

// NewAlertEngine creates an alert engine from rule specs. A spec is either a
// regular expression or "name=expression"; the expression is matched against
// the level, category, item and message of each entry.
func NewAlertEngine(specs []string) (*AlertEngine, error) {
	engine := &AlertEngine{}
	for _, spec := range specs {
		name, pattern := spec, spec
		if i := strings.IndexByte(spec, '='); i > 0 {
			name, pattern = spec[:i], spec[i+1:]
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid alert pattern %q: %w", pattern, err)
		}
		engine.Add(name, filter.FieldMatch(filter.TextKeys, re))
	}
	return engine, nil
}

// Add registers a rule named name.
func (e *AlertEngine) Add(name string, c filter.Condition) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = append(e.rules, &AlertRule{Name: name, Condition: c})
}

// Check evaluates an entry against all rules. Returns matched rule names.
// Notifications never trigger alerts.
func (e *AlertEngine) Check(en *entry.Entry) []string {
	if en.Kind() == entry.KindNotification {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var triggered []string
	for _, r := range e.rules {
		if r.Condition.Evaluate(en) {
			r.Count++
			triggered = append(triggered, r.Name)
		}
	}
	return triggered
}

// Len returns the number of rules.
func (e *AlertEngine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.rules)
}

// Summary returns a formatted summary of alert counts.
func (e *AlertEngine) Summary() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.rules) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("── Alerts ──\n")
	for _, r := range e.rules {
		sb.WriteString(fmt.Sprintf("  %-30s %d hits\n", r.Name, r.Count))
	}
	sb.WriteString("────────────")
	return sb.String()
}

// TotalAlerts returns the total number of alerts triggered.
func (e *AlertEngine) TotalAlerts() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	total := 0
	for _, r := range e.rules {
		total += r.Count
	}
	return total
}
