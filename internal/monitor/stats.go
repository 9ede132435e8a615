// Package monitor provides statistics, metrics and alerting for the pipeline.
package monitor

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Geun-Oh/vcilog/internal/entry"
)

// Stats collects pipeline processing counters in a lock-free manner.
type Stats struct {
	total     atomic.Uint64
	matched   atomic.Uint64
	byKind    [entry.KindNotification + 1]atomic.Uint64
	byLevel   [entry.LevelTrace / 100]atomic.Uint64
	startTime time.Time
	now       func() time.Time
}

// NewStats creates a new statistics collector.
func NewStats() *Stats {
	return &Stats{
		startTime: time.Now(),
		now:       time.Now,
	}
}

// RecordEntry counts a received entry by kind and rounded level.
func (s *Stats) RecordEntry(e *entry.Entry) {
	s.total.Add(1)
	if k := e.Kind(); k >= 0 && int(k) < len(s.byKind) {
		s.byKind[k].Add(1)
	}
	s.byLevel[levelIndex(e.Level().Round())].Add(1)
}

// RecordMatch increments the matched entry counter.
func (s *Stats) RecordMatch() {
	s.matched.Add(1)
}

// Total returns the number of received entries.
func (s *Stats) Total() uint64 {
	return s.total.Load()
}

// Matched returns the number of entries that passed the condition.
func (s *Stats) Matched() uint64 {
	return s.matched.Load()
}

// Kind returns the number of received entries of kind k.
func (s *Stats) Kind(k entry.Kind) uint64 {
	if k < 0 || int(k) >= len(s.byKind) {
		return 0
	}
	return s.byKind[k].Load()
}

// Level returns the number of received entries whose level rounds to l.
func (s *Stats) Level(l entry.Level) uint64 {
	return s.byLevel[levelIndex(l.Round())].Load()
}

// Elapsed returns the time since monitoring started.
func (s *Stats) Elapsed() time.Duration {
	return s.now().Sub(s.startTime)
}

// Rate returns the current entries per second.
func (s *Stats) Rate() float64 {
	elapsed := s.Elapsed().Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(s.Total()) / elapsed
}

// Summary returns a formatted summary string.
func (s *Stats) Summary() string {
	elapsed := s.Elapsed()
	total := s.Total()
	matched := s.Matched()

	matchRate := float64(0)
	if total > 0 {
		matchRate = float64(matched) / float64(total) * 100
	}

	levels := make([]string, 0, len(entry.Levels))
	for _, l := range entry.Levels {
		levels = append(levels, fmt.Sprintf("%s %d", l, s.Level(l)))
	}

	return fmt.Sprintf(
		"── Summary ──\n"+
			"  Total entries:   %d (logger %d, notification %d)\n"+
			"  Matched entries: %d (%.1f%%)\n"+
			"  Levels:          %s\n"+
			"  Duration:        %s\n"+
			"  Throughput:      %.0f entries/s\n"+
			"─────────────",
		total, s.Kind(entry.KindLogger), s.Kind(entry.KindNotification),
		matched, matchRate,
		strings.Join(levels, ", "),
		elapsed.Round(time.Millisecond),
		s.Rate(),
	)
}

// levelIndex maps a rounded level to its position in entry.Levels.
func levelIndex(l entry.Level) int {
	return int(l/100) - 1
}
