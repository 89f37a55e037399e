package cli

import (
	"errors"
	"fmt"

	"github.com/me/ossim/internal/parser"
	"github.com/me/ossim/pkg/model"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a process description without simulating it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfg.InputPath
			if len(args) > 0 {
				path = args[0]
			}
			out := cmd.OutOrStdout()

			procs, err := parser.New(logger).Load(cmd.Context(), path)
			if err != nil {
				var cfgErr *model.ConfigError
				if errors.As(err, &cfgErr) && len(cfgErr.Details) > 0 {
					for _, d := range cfgErr.Details {
						fmt.Fprintf(out, "  %s\n", d.Error())
					}
					return fmt.Errorf("%s: %d problem(s) found", path, len(cfgErr.Details))
				}
				return err
			}

			fmt.Fprintf(out, "%-6s  %-8s  %-9s  %s\n", "PID", "ARRIVAL", "REQUIRED", "I/O (offset:duration)")
			fmt.Fprintf(out, "%-6s  %-8s  %-9s  %s\n", "---", "-------", "--------", "---------------------")
			for _, p := range procs {
				io := ""
				for i, ev := range p.IOEvents {
					if i > 0 {
						io += " "
					}
					io += fmt.Sprintf("%d:%d", ev.Offset, ev.Duration)
				}
				fmt.Fprintf(out, "%-6d  %-8d  %-9d  %s\n", p.ID, p.ArrivalTime, p.RequiredTime, io)
			}
			fmt.Fprintf(out, "\n%s: %d processes OK\n", path, len(procs))
			return nil
		},
	}
}
