package cli

import (
	"fmt"

	"github.com/me/ossim/pkg/model"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	opts := model.DefaultListOptions()

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived simulation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				runs  []*model.Run
				total int
			)
			if client != nil {
				resp, err := client.Get(fmt.Sprintf("/api/v1/simulations?limit=%d&offset=%d", opts.Limit, opts.Offset), &runs)
				if err != nil {
					return fmt.Errorf("list simulations: %w", err)
				}
				if resp.Pagination != nil {
					total = resp.Pagination.Total
				}
			} else {
				dbPath, err := resolveDBPath(cfg.DBPath)
				if err != nil {
					return err
				}
				st, err := openStore(cmd.Context(), dbPath)
				if err != nil {
					return err
				}
				defer st.Close()
				runs, total, err = st.ListRuns(cmd.Context(), opts)
				if err != nil {
					return fmt.Errorf("list runs: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs found.")
				return nil
			}

			fmt.Fprintf(out, "%-40s  %-10s  %-6s  %-7s  %-6s  %s\n", "ID", "STATE", "PROCS", "TICKS", "UTIL", "CREATED")
			fmt.Fprintf(out, "%-40s  %-10s  %-6s  %-7s  %-6s  %s\n", "--", "-----", "-----", "-----", "----", "-------")
			for _, run := range runs {
				fmt.Fprintf(out, "%-40s  %-10s  %-6d  %-7d  %5.1f%%  %s\n",
					run.ID, run.State, run.ProcessCount, run.Ticks, run.Utilization()*100,
					run.CreatedAt.Format("2006-01-02 15:04:05"))
			}

			if total > len(runs) {
				fmt.Fprintf(out, "\n(%d of %d shown)\n", len(runs), total)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", opts.Limit, "Maximum number of runs to list")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Number of runs to skip")
	return cmd
}
