// Package cmd provides the commands of the procession CLI.
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/comalice/procession"
	"github.com/comalice/procession/internal/config"
	"github.com/comalice/procession/internal/geometry"
	"github.com/comalice/procession/internal/logging"
	"github.com/comalice/procession/internal/primitives"
)

// Command group IDs used to organize help output.
const (
	GroupRun    = "run"
	GroupAuthor = "author"
	GroupData   = "data"
)

// rootOptions holds the persistent flags.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "procession",
		Short: "Procession choreography engine",
		Long: `procession authors closed routes around a brotherhood's seat and runs
processions along them: a guiding cross, the bearers and one or two floats,
advanced tick by tick until everyone is home.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "TOML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format (console, json)")

	root.AddGroup(
		&cobra.Group{ID: GroupRun, Title: "Running processions:"},
		&cobra.Group{ID: GroupAuthor, Title: "Authoring:"},
		&cobra.Group{ID: GroupData, Title: "Data:"},
	)
	root.AddCommand(
		newSimulateCmd(opts),
		newWatchCmd(opts),
		newRouteCmd(opts),
		newLifecycleCmd(),
		newActorsCmd(opts),
		newSavesCmd(opts),
	)
	return root
}

// Execute runs the root command and returns an exit code.
// The caller (main) should call os.Exit with this code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		return 1
	}
	return 0
}

// loadConfig reads --config (or the defaults) and applies the log flags.
func (o *rootOptions) loadConfig() (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return config.Config{}, err
		}
	}
	if o.logLevel != "" {
		lvl, ok := logging.ParseLevel(o.logLevel)
		if !ok {
			return config.Config{}, fmt.Errorf("unknown log level %q", o.logLevel)
		}
		cfg.Log.Level = lvl
	}
	if o.logFormat != "" {
		f, ok := logging.ParseFormat(o.logFormat)
		if !ok {
			return config.Config{}, fmt.Errorf("unknown log format %q", o.logFormat)
		}
		cfg.Log.Format = f
	}
	if len(cfg.Actors) == 0 {
		cfg.Actors = config.SampleRoster()
	}
	return cfg, nil
}

// logger builds the CLI logger on w from cfg and the PROCESSION_LOG_* env.
func logger(w io.Writer, cfg config.Config) zerolog.Logger {
	opts := logging.DefaultOptions(logging.ProfileRuntime)
	opts.Level, opts.Format = cfg.Log.Level, cfg.Log.Format
	logging.ApplyEnv(&opts)
	return logging.New(w, opts)
}

// newSession loads the config and wires a simulation logging to stderr.
func (o *rootOptions) newSession(cmd *cobra.Command, extra ...procession.Option) (*procession.Simulation, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	opts := append([]procession.Option{
		procession.WithConfig(cfg),
		procession.WithLogger(logger(cmd.ErrOrStderr(), cfg)),
	}, extra...)
	return procession.New(opts...)
}

// parsePoints reads "x,y x,y ..." (space or ';' separated).
func parsePoints(s string) ([]geometry.Point, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ';' || r == '\t' || r == '\n' })
	pts := make([]geometry.Point, 0, len(fields))
	for _, f := range fields {
		var x, y float64
		if _, err := fmt.Sscanf(f, "%g,%g", &x, &y); err != nil {
			return nil, fmt.Errorf("%w: bad point %q, want x,y", primitives.ErrValidation, f)
		}
		pts = append(pts, geometry.Pt(x, y))
	}
	return pts, nil
}

// stdoutIsTerminal reports whether stdout is attached to a terminal.
func stdoutIsTerminal() bool { return term.IsTerminal(int(os.Stdout.Fd())) }
