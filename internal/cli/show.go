package cli

import (
	"fmt"
	"io"

	"github.com/me/ossim/internal/stats"
	"github.com/me/ossim/internal/trace"
	"github.com/me/ossim/pkg/model"
	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	var statsOnly bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Reprint an archived run: its trace and statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, ticks, err := fetchRun(cmd.Context(), args[0], !statsOnly)
			if err != nil {
				return err
			}
			printRun(cmd.OutOrStdout(), run, ticks)
			return nil
		},
	}

	cmd.Flags().BoolVar(&statsOnly, "stats-only", false, "Skip the recorded tick trace")
	return cmd
}

func printRun(out io.Writer, run *model.Run, ticks []model.TickResult) {
	fmt.Fprintf(out, "Run:        %s\n", run.ID)
	fmt.Fprintf(out, "  Source:   %s\n", run.Source)
	fmt.Fprintf(out, "  State:    %s\n", run.State)
	fmt.Fprintf(out, "  Processes: %d\n", run.ProcessCount)
	if run.Error != "" {
		fmt.Fprintf(out, "  Error:    %s\n", run.Error)
	}
	fmt.Fprintf(out, "  Created:  %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"))
	if run.CompletedAt != nil {
		fmt.Fprintf(out, "  Completed: %s\n", run.CompletedAt.Format("2006-01-02 15:04:05"))
	}

	if len(ticks) > 0 {
		fmt.Fprintln(out)
		for _, line := range trace.Lines(ticks) {
			fmt.Fprintln(out, line)
		}
	}

	fmt.Fprintln(out)
	stats.Render(out, run.Stats, run.Ticks, run.BusyTicks)
}
