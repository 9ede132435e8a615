package main

import (
	"github.com/spf13/cobra"

	"github.com/Geun-Oh/vcilog/internal/source"
)

func newExecCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "exec -- command [args...]",
		Short: "Filter the msgpack logger frames written by a command",
		Long: `Exec runs a command that writes msgpack logger frames to its stdout, for
example a bridge to a console that is not directly reachable. Its stderr
lines are shown as text entries.

Examples:
  vcilog exec -- ssh devbox vci-bridge
  vcilog exec -X qux -- cat capture.msgpack`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := source.NewExecSource(args[0], args[1:])
			return run(cmd.Context(), cmd, a.cfg, src)
		},
	}
}
