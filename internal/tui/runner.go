package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Geun-Oh/vcilog/internal/format"
	"github.com/Geun-Oh/vcilog/internal/logger"
	"github.com/Geun-Oh/vcilog/internal/pipeline"
)

// RunConfig holds configuration for the TUI pipeline.
type RunConfig struct {
	Pipeline *pipeline.Config
	Format   format.Formatter

	// Options are appended to the program options, after the alternate screen.
	Options []tea.ProgramOption
}

// Run starts the TUI dashboard with a live source pipeline. Accepted entries
// are also written to the pipeline sinks, if any.
// This function blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, cfg *RunConfig) error {
	pc := cfg.Pipeline
	if pc == nil || pc.Source == nil {
		return errors.New("tui: source is required")
	}

	// Create a cancellable context to ensure the source is stopped when the TUI exits.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	proc := pipeline.NewProcessor(pc)
	model := NewModel(pc.Stats, pc.Rate, pc.Alerts, pc.Ring, pc.Source.Name(), cfg.Format)
	opts := append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, cfg.Options...)
	program := tea.NewProgram(model, opts...)

	ch, err := pc.Source.Start(ctx)
	if err != nil {
		return fmt.Errorf("tui: start source: %w", err)
	}

	log := logger.Get(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for e := range ch {
			res := proc.Process(ctx, &e)

			if res.Spike {
				program.Send(SpikeMsg{Rate: pc.Rate.CurrentRate()})
			}
			if len(res.Alerts) > 0 {
				program.Send(AlertMsg{Rules: res.Alerts, Entry: e})
			}
			for i := range res.Emit {
				for _, s := range pc.Sinks {
					if err := s.Write(&res.Emit[i]); err != nil {
						log.Errorw("sink write failed", "sink", s.Name(), "error", err)
					}
				}
				program.Send(LogMsg(res.Emit[i]))
			}
		}

		program.Send(DoneMsg{})
	}()

	_, err = program.Run()

	// Ensure source is stopped and consumer finishes.
	cancel()
	wg.Wait()

	for _, s := range pc.Sinks {
		_ = s.Flush()
		_ = s.Close()
	}

	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
