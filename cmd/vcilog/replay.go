package main

import (
	"github.com/spf13/cobra"

	"github.com/Geun-Oh/vcilog/internal/source"
)

func newReplayCmd(a *app) *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "replay [file|-]",
		Short: "Filter a recorded msgpack stream of logger frames",
		Long: `Replay reads consecutive msgpack logger frames from a file, or from stdin
when the argument is "-" or missing, and runs them through the same filters
and formats as a live connection.

Examples:
  vcilog replay capture.msgpack -X "frame time"
  cat capture.msgpack | vcilog replay -f json_record
  vcilog replay capture.msgpack --follow --tui`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var src source.Source
			switch {
			case len(args) == 0 || args[0] == "-":
				src = source.NewReaderSource(cmd.InOrStdin(), "stdin")
			default:
				src = source.NewFileSource(args[0], follow)
			}
			return run(cmd.Context(), cmd, a.cfg, src)
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "F", false, "keep reading as frames are appended to the file")
	return cmd
}
