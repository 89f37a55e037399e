package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/me/ossim/internal/config"
	"github.com/me/ossim/internal/parser"
	"github.com/me/ossim/internal/scheduler"
	"github.com/me/ossim/internal/server"
	"github.com/me/ossim/internal/stats"
	"github.com/me/ossim/internal/store"
	"github.com/me/ossim/internal/telemetry"
	"github.com/me/ossim/internal/trace"
	"github.com/spf13/cobra"
)

var (
	flagTraceFormat string
	flagMaxTicks    int
	flagSummary     bool
	flagOtelOut     string
)

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagTraceFormat, "trace-format", cfg.TraceFormat, "Trace format (text, json)")
	cmd.Flags().IntVar(&flagMaxTicks, "max-ticks", 0, "Abort after this many ticks (0 = unbounded)")
	cmd.Flags().BoolVar(&flagSummary, "summary", false, "Print per-process statistics after the trace")
	cmd.Flags().StringVar(&flagOtelOut, "otel-out", "", "Write OpenTelemetry spans to this file (- for stdout)")
}

// resolveRunConfig layers changed flags and positional arguments over the
// loaded configuration.
func resolveRunConfig(cmd *cobra.Command, args []string) (config.SimConfig, error) {
	c := cfg
	flags := cmd.Flags()
	if flags.Changed("trace-format") {
		c.TraceFormat = flagTraceFormat
	}
	if flags.Changed("max-ticks") {
		c.MaxTicks = flagMaxTicks
	}
	if flags.Changed("summary") {
		c.Summary = flagSummary
	}
	if flags.Changed("otel-out") {
		c.OtelOutput = flagOtelOut
	}

	if len(args) > 0 {
		c.InputPath = args[0]
	}
	if len(args) > 1 {
		d, err := config.ParseDelay(args[1])
		if err != nil {
			return c, err
		}
		c.Delay = d
	}
	if c.MaxTicks < 0 {
		return c, fmt.Errorf("max-ticks must not be negative: %d", c.MaxTicks)
	}
	return c, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	c, err := resolveRunConfig(cmd, args)
	if err != nil {
		return err
	}
	format, err := trace.ParseFormat(c.TraceFormat)
	if err != nil {
		return err
	}

	if c.OtelOutput != "" {
		if err := telemetry.Init("ossim", server.Version, c.OtelOutput); err != nil {
			return fmt.Errorf("init telemetry: %w", err)
		}
		defer func() {
			if serr := telemetry.Shutdown(context.Background()); serr != nil {
				logger.Warn("telemetry shutdown failed", "error", serr)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	procs, err := parser.New(logger).Load(ctx, c.InputPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	collector := stats.NewCollector()
	sinks := []scheduler.Sink{trace.NewWriter(out, format), collector}

	var rec *store.Recorder
	if c.DBPath != "" {
		st, err := openStore(ctx, c.DBPath)
		if err != nil {
			return err
		}
		defer st.Close()
		rec, err = store.StartRun(ctx, st, c.InputPath, len(procs), logger)
		if err != nil {
			return err
		}
		sinks = append(sinks, rec)
	}

	loop, err := scheduler.New(procs, scheduler.Config{Delay: c.Delay, MaxTicks: c.MaxTicks}, logger, sinks...)
	if err != nil {
		return err
	}
	res, runErr := loop.Run(ctx)

	if rec != nil {
		run, ferr := rec.Finish(context.WithoutCancel(ctx), collector.Stats(), runErr)
		if ferr != nil {
			logger.Error("archive run", "error", ferr)
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "run archived: %s\n", run.ID)
		}
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			return fmt.Errorf("interrupted after %d ticks", res.Ticks)
		}
		return runErr
	}

	if c.Summary {
		fmt.Fprintln(out)
		stats.Render(out, collector.Stats(), res.Ticks, res.BusyTicks)
	}
	return nil
}
