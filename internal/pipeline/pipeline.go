// Package pipeline orchestrates Source → Condition → Sink processing.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Geun-Oh/vcilog/internal/buffer"
	"github.com/Geun-Oh/vcilog/internal/entry"
	"github.com/Geun-Oh/vcilog/internal/filter"
	"github.com/Geun-Oh/vcilog/internal/logger"
	"github.com/Geun-Oh/vcilog/internal/monitor"
	"github.com/Geun-Oh/vcilog/internal/sink"
	"github.com/Geun-Oh/vcilog/internal/source"
)

// Config holds pipeline configuration. Only Source and Sinks are required by
// Run; every other field is optional.
type Config struct {
	Source    source.Source
	Condition filter.Condition // zero value accepts everything
	Before    int              // context entries shown before a match
	After     int              // context entries shown after a match
	Sinks     []sink.Sink
	Stats     *monitor.Stats
	Metrics   *monitor.Metrics
	Alerts    *monitor.AlertEngine
	Rate      *monitor.RateDetector
	Ring      *buffer.Ring // keeps accepted entries for later search

	// Summary receives the statistics and alert summary once the source is
	// exhausted. Nil disables it.
	Summary io.Writer
}

// Result is the outcome of processing one received entry.
type Result struct {
	Emit   []entry.Entry // entries to output, in order
	Alerts []string      // alert rules the entry triggered
	Spike  bool          // the accepted rate spiked on this entry
}

// Processor applies the per-entry pipeline steps. It is not safe for
// concurrent use.
type Processor struct {
	cfg     *Config
	context *filter.ContextBuffer
}

// NewProcessor prepares cfg for processing. A missing Stats is created.
func NewProcessor(cfg *Config) *Processor {
	if cfg.Stats == nil {
		cfg.Stats = monitor.NewStats()
	}
	p := &Processor{cfg: cfg}
	if cfg.Before > 0 || cfg.After > 0 {
		p.context = filter.NewContextBuffer(cfg.Condition, cfg.Before, cfg.After)
	}
	return p
}

// Process counts e, checks alerts and returns what should be emitted.
func (p *Processor) Process(ctx context.Context, e *entry.Entry) Result {
	cfg := p.cfg
	cfg.Stats.RecordEntry(e)
	if cfg.Metrics != nil {
		cfg.Metrics.ObserveEntry(e)
	}

	var res Result
	if cfg.Alerts != nil {
		res.Alerts = cfg.Alerts.Check(e)
		for _, rule := range res.Alerts {
			logger.Get(ctx).Warnw("alert triggered", "rule", rule, "level", e.Level(), "message", e.Message())
			if cfg.Metrics != nil {
				cfg.Metrics.ObserveAlert(rule)
			}
		}
	}

	if p.context != nil {
		res.Emit = p.context.Process(e)
	} else if cfg.Condition.Evaluate(e) {
		res.Emit = []entry.Entry{*e}
	}

	for i := range res.Emit {
		cfg.Stats.RecordMatch()
		if cfg.Metrics != nil {
			cfg.Metrics.ObserveMatch()
		}
		if cfg.Ring != nil {
			cfg.Ring.Push(res.Emit[i])
		}
		if cfg.Rate != nil && cfg.Rate.Record() {
			res.Spike = true
		}
	}
	return res
}

// Run executes the pipeline: reads from source, filters, and writes to sinks.
// Blocks until the source is exhausted or ctx is cancelled.
func Run(ctx context.Context, cfg *Config) (err error) {
	if cfg.Source == nil {
		return errors.New("pipeline: source is required")
	}
	if len(cfg.Sinks) == 0 {
		return errors.New("pipeline: at least one sink is required")
	}

	// Stop the source when Run returns early.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	proc := NewProcessor(cfg)
	log := logger.Get(ctx)

	ch, err := cfg.Source.Start(ctx)
	if err != nil {
		return fmt.Errorf("pipeline: start source: %w", err)
	}
	log.Debugw("pipeline started", "source", cfg.Source.Name(), "condition", cfg.Condition.String())

	defer func() {
		for _, s := range cfg.Sinks {
			if ferr := s.Flush(); ferr != nil && err == nil {
				err = fmt.Errorf("pipeline: flush %s: %w", s.Name(), ferr)
			}
			if cerr := s.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("pipeline: close %s: %w", s.Name(), cerr)
			}
		}
	}()

	for e := range ch {
		res := proc.Process(ctx, &e)
		if res.Spike {
			log.Infow("entry rate spike", "rate", cfg.Rate.CurrentRate())
		}
		for i := range res.Emit {
			for _, s := range cfg.Sinks {
				if err := s.Write(&res.Emit[i]); err != nil {
					return fmt.Errorf("pipeline: write to %s: %w", s.Name(), err)
				}
			}
		}
	}

	log.Debugw("pipeline finished", "total", cfg.Stats.Total(), "matched", cfg.Stats.Matched())
	if cfg.Summary != nil {
		WriteSummary(cfg.Summary, cfg.Stats, cfg.Alerts)
	}
	return nil
}

// WriteSummary prints the statistics and, when rules exist, the alert summary.
func WriteSummary(w io.Writer, stats *monitor.Stats, alerts *monitor.AlertEngine) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, stats.Summary())
	if alerts != nil && alerts.Len() > 0 {
		fmt.Fprintln(w, alerts.Summary())
	}
}
