package cli

import (
	"fmt"

	"github.com/me/ossim/internal/trace"
	"github.com/spf13/cobra"
)

func newDiffCmd() *cobra.Command {
	var contextLines int

	cmd := &cobra.Command{
		Use:   "diff <run-a> <run-b>",
		Short: "Show a unified diff between the traces of two archived runs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ticksA, err := fetchRun(cmd.Context(), args[0], true)
			if err != nil {
				return err
			}
			_, ticksB, err := fetchRun(cmd.Context(), args[1], true)
			if err != nil {
				return err
			}

			patch, st, err := trace.Diff(trace.Lines(ticksA), trace.Lines(ticksB), args[0], args[1], contextLines)
			if err != nil {
				return fmt.Errorf("diff traces: %w", err)
			}

			out := cmd.OutOrStdout()
			if patch == "" {
				fmt.Fprintln(out, "Traces are identical.")
				return nil
			}
			fmt.Fprint(out, patch)
			fmt.Fprintf(out, "\n%d line(s) added, %d removed\n", st.Added, st.Removed)
			return nil
		},
	}

	cmd.Flags().IntVarP(&contextLines, "context", "U", 3, "Lines of context around each change")
	return cmd
}
