package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Geun-Oh/vcilog/internal/config"
	"github.com/Geun-Oh/vcilog/internal/format"
	"github.com/Geun-Oh/vcilog/internal/logger"
	"github.com/Geun-Oh/vcilog/internal/source"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// app holds the settings shared by the commands of one tree.
type app struct {
	cfgFile string
	v       *viper.Viper
	cfg     *config.Config
}

// newRootCmd builds the command tree. Each call gets its own settings.
func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	rootCmd := &cobra.Command{
		Use:   "vcilog",
		Short: "vcilog streams and filters the logger console of a VCI application",
		Long: `vcilog connects to the WebSocket logger console of a running application,
decodes its log records and prints them, filtered and optionally colored,
to the terminal, a file or an interactive dashboard.

Examples:
  vcilog
  vcilog -c 192.168.0.10:8080 -X "frame time" --stats
  vcilog -I error -r --tui
  vcilog replay capture.msgpack -f json_record`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			src := source.NewWebSocketSource(cfg.Connect, cfg.WebSocketOptions())
			return run(cmd.Context(), cmd, cfg, src)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logger.Sync()
		},
	}
	rootCmd.SetVersionTemplate("vcilog {{.Version}}\n")

	flags := rootCmd.Flags()
	flags.StringP("connect", "c", source.DefaultURL, "specify the URL to connect VCI WebSocket console")
	flags.Duration("handshake-timeout", 10*time.Second, "timeout of the WebSocket opening handshake")
	flags.Duration("reconnect", 0, "reconnect after this delay when the connection ends (0 disables)")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: $HOME/.vcilog.yaml)")
	pf.StringP("format", "f", format.NameDefault, fmt.Sprintf("specify the output format (%s)", strings.Join(format.Names, ", ")))
	pf.BoolP("all-warnings", "A", false, `output all the warnings such as "frame: script not return"`)
	pf.Bool("output-system-status", false, "output the system status")
	pf.BoolP("suppress-state-shared-variable", "s", false, `suppress "Item_State" and "SharedVariable" categories`)
	pf.StringP("include-text", "I", "", "specify the text to include")
	pf.StringP("exclude-text", "X", "", "specify the text to exclude")
	pf.StringP("include-item", "i", "", "specify the item name to include")
	pf.StringP("exclude-item", "x", "", "specify the item name to exclude")
	pf.BoolP("regex-search", "r", false, "enable regular expression search")
	pf.Bool("no-color", false, "disable colored output")
	pf.Bool("tui", false, "show the interactive dashboard")
	pf.String("output-file", "", "also append plain output to this file")
	pf.IntP("before", "B", 0, "show N entries before each match")
	pf.IntP("after", "a", 0, "show N entries after each match")
	pf.StringArray("alert", nil, `alert rule "name=regex" (repeatable)`)
	pf.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9100")
	pf.Bool("stats", false, "print a summary when the stream ends")
	pf.Int("history", 10000, "entries kept for dashboard search")
	pf.Bool("explain", false, "print the filter condition and exit")
	pf.String("log-level", "warn", "diagnostic log level (debug, info, warn, error)")
	pf.String("log-file", "", "write diagnostic logs to this file with rotation")

	rootCmd.AddCommand(newReplayCmd(a), newExecCmd(a))
	return rootCmd
}

// init resolves the configuration and installs the diagnostic logger.
func (a *app) init(cmd *cobra.Command) error {
	if err := config.BindFlags(a.v, cmd.Flags()); err != nil {
		return err
	}
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Log); err != nil {
		return err
	}
	a.cfg = cfg

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	l := logger.Get(ctx)
	cmd.SetContext(logger.WithContext(ctx, l))
	if used := a.v.ConfigFileUsed(); used != "" {
		l.Debugw("config file loaded", "path", used)
	}
	return nil
}

// Execute runs the root command until it finishes or a signal arrives.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
