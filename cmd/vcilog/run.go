package main

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/Geun-Oh/vcilog/internal/buffer"
	"github.com/Geun-Oh/vcilog/internal/config"
	"github.com/Geun-Oh/vcilog/internal/filter"
	"github.com/Geun-Oh/vcilog/internal/format"
	"github.com/Geun-Oh/vcilog/internal/logger"
	"github.com/Geun-Oh/vcilog/internal/monitor"
	"github.com/Geun-Oh/vcilog/internal/pipeline"
	"github.com/Geun-Oh/vcilog/internal/sink"
	"github.com/Geun-Oh/vcilog/internal/source"
	"github.com/Geun-Oh/vcilog/internal/tui"
)

// run wires src through the configured condition into the terminal, the
// output file or the dashboard.
func run(ctx context.Context, cmd *cobra.Command, cfg *config.Config, src source.Source) error {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	log := logger.Get(ctx)

	cond := filter.Build(cfg.FilterOptions())
	if cfg.Explain {
		fmt.Fprintln(out, cond)
		return nil
	}

	styled, err := format.ByName(cfg.Format, palette(out, cfg.NoColor))
	if err != nil {
		return err
	}

	var sinks []sink.Sink
	if !cfg.TUI {
		sinks = append(sinks, sink.NewTerminalSink(out, errOut, styled))
	}
	if cfg.OutputFile != "" {
		plain, err := format.ByName(cfg.Format, nil)
		if err != nil {
			return err
		}
		fs, err := sink.NewFileSink(cfg.OutputFile, plain)
		if err != nil {
			return err
		}
		sinks = append(sinks, fs)
	}

	alerts, err := monitor.NewAlertEngine(cfg.Alerts)
	if err != nil {
		return err
	}

	pc := &pipeline.Config{
		Source:    src,
		Condition: cond,
		Before:    cfg.Before,
		After:     cfg.After,
		Sinks:     sinks,
		Stats:     monitor.NewStats(),
		Alerts:    alerts,
		Rate:      monitor.NewRateDetector(0, 0),
	}
	if cfg.Stats {
		pc.Summary = errOut
	}

	if cfg.MetricsAddr != "" {
		pc.Metrics = monitor.NewMetrics()
		go func() {
			if err := pc.Metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
				log.Errorw("metrics server failed", "addr", cfg.MetricsAddr, "error", err)
			}
		}()
	}

	log.Infow("starting", "source", src.Name(), "condition", cond.String(), "format", cfg.Format)

	if cfg.TUI {
		pc.Ring = buffer.NewRing(cfg.History)
		if err := tui.Run(ctx, &tui.RunConfig{Pipeline: pc, Format: styled}); err != nil {
			return err
		}
		if cfg.Stats {
			pipeline.WriteSummary(errOut, pc.Stats, pc.Alerts)
		}
		return nil
	}
	return pipeline.Run(ctx, pc)
}

// palette returns the severity styles for w, or nil when color is disabled
// by flag, by NO_COLOR or because w is not a color terminal.
func palette(w io.Writer, noColor bool) format.Palette {
	if noColor || termenv.EnvNoColor() {
		return nil
	}
	r := lipgloss.NewRenderer(w)
	if r.ColorProfile() == termenv.Ascii {
		return nil
	}
	return format.NewPalette(r)
}
