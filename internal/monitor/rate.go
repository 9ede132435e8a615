package monitor

import (
	"sync"
	"time"
)

// RateDetector tracks event rates and detects spikes using a sliding window
// of per-second buckets.
type RateDetector struct {
	mu        sync.Mutex
	window    time.Duration
	counts    []int64 // per-second counters, indexed by unix second modulo len
	seconds   []int64 // unix second each counter belongs to
	threshold float64 // spike threshold multiplier (e.g., 3.0 = 3x average)
	now       func() time.Time
}

// NewRateDetector creates a rate detector with the given window duration and spike threshold.
// threshold is the multiplier over the moving average that triggers a spike alert.
// E.g., threshold=3.0 means alert when the current second exceeds 3x the average.
func NewRateDetector(window time.Duration, threshold float64) *RateDetector {
	if window < time.Second {
		window = 10 * time.Second
	}
	if threshold <= 0 {
		threshold = 3.0
	}
	n := int(window / time.Second)
	return &RateDetector{
		window:    window,
		counts:    make([]int64, n),
		seconds:   make([]int64, n),
		threshold: threshold,
		now:       time.Now,
	}
}

// Record adds an event at the current time.
// Returns true if a spike is detected.
func (r *RateDetector) Record() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	sec := r.now().Unix()
	i := r.slot(sec)
	if r.seconds[i] != sec {
		r.seconds[i] = sec
		r.counts[i] = 0
	}
	r.counts[i]++

	return r.isSpiking(sec)
}

// CurrentRate returns events per second over the last window.
func (r *RateDetector) CurrentRate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	sec := r.now().Unix()
	var total int64
	for i, s := range r.seconds {
		if r.live(s, sec) {
			total += r.counts[i]
		}
	}
	return float64(total) / r.window.Seconds()
}

// LatestSecondRate returns the event count in the current second.
func (r *RateDetector) LatestSecondRate() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	sec := r.now().Unix()
	i := r.slot(sec)
	if r.seconds[i] == sec {
		return r.counts[i]
	}
	return 0
}

func (r *RateDetector) slot(sec int64) int {
	n := int64(len(r.counts))
	return int(((sec % n) + n) % n)
}

// live reports whether a bucket stamped s is inside the window ending at sec.
func (r *RateDetector) live(s, sec int64) bool {
	return s > sec-int64(len(r.counts)) && s <= sec
}

// isSpiking checks if the current second exceeds threshold * average of the
// other active seconds. Must be called with lock held.
func (r *RateDetector) isSpiking(sec int64) bool {
	var sum, active int64
	var latest int64
	for i, s := range r.seconds {
		switch {
		case s == sec:
			latest = r.counts[i]
		case r.live(s, sec) && r.counts[i] > 0:
			sum += r.counts[i]
			active++
		}
	}
	if active < 2 {
		return false // not enough data
	}

	avg := float64(sum) / float64(active)
	return float64(latest) > avg*r.threshold
}
