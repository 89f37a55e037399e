package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/me/ossim/internal/config"
	"github.com/me/ossim/internal/logging"
	"github.com/spf13/cobra"
)

var (
	flagServer    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string
	flagConfig    string
	flagDB        string

	cfg    config.SimConfig
	logger *slog.Logger
	client *Client
)

// defaultServer returns the API server URL from OSSIM_SERVER. Empty means
// commands work against the local run archive.
func defaultServer() string {
	return os.Getenv("OSSIM_SERVER")
}

// NewRootCmd creates the root cobra command for the ossim CLI. Run without a
// subcommand it simulates the process list named by its arguments.
func NewRootCmd() *cobra.Command {
	cfg = config.DefaultSimConfig()
	client = nil

	root := &cobra.Command{
		Use:   "ossim [file] [sleepDuration]",
		Short: "ossim - single-processor scheduler simulator",
		Long: `ossim replays a list of processes through a single-processor scheduler,
one clock tick at a time, printing one trace line per tick.

file defaults to ./procList.txt. sleepDuration is the pause between ticks,
in milliseconds or as a duration such as 10ms (default 50).`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 2 {
				return fmt.Errorf("usage: %s", cmd.UseLine())
			}
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flagConfig != "" {
				if err := config.LoadFile(flagConfig, &cfg); err != nil {
					return err
				}
			}
			flags := cmd.Flags()
			if flags.Changed("log-level") || cfg.LogLevel == "" {
				cfg.LogLevel = flagLogLevel
			}
			if flags.Changed("log-format") || cfg.LogFormat == "" {
				cfg.LogFormat = flagLogFormat
			}
			if flags.Changed("db") {
				cfg.DBPath = flagDB
			}
			if flagDebug {
				cfg.LogLevel = "debug"
			}
			logger = logging.NewLoggerWithWriter(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat, cmd.ErrOrStderr())
			if flagServer != "" {
				client = NewClient(flagServer, logger)
			}
			return nil
		},
		RunE:          runSimulation,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaultServer(), "ossim API server URL (or OSSIM_SERVER env); empty uses the local archive")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error, off)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", cfg.LogFormat, "Log format (text, json)")
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite run archive path")

	// A bad flag, including a negative positional read as a shorthand, is a
	// malformed invocation.
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w\nusage: %s", err, cmd.UseLine())
	})

	addRunFlags(root)

	root.AddCommand(
		newValidateCmd(),
		newHistoryCmd(),
		newShowCmd(),
		newDiffCmd(),
		newSubmitCmd(),
		newServeCmd(),
	)

	return root
}
