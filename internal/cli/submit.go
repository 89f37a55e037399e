package cli

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/me/ossim/pkg/model"
	"github.com/spf13/cobra"
	"github.com/viant/afs"
)

type submitResult struct {
	Run         model.Run `json:"run"`
	Utilization float64   `json:"utilization"`
	Trace       []string  `json:"trace"`
}

func newSubmitCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "submit [file]",
		Short: "Simulate a process description on the API server",
		Long:  "Upload a process description to the ossim server, which simulates it, archives the run and returns the trace.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if client == nil {
				return errors.New("submit needs a server: pass --server or set OSSIM_SERVER")
			}
			src := cfg.InputPath
			if len(args) > 0 {
				src = args[0]
			}

			data, err := afs.New().DownloadWithURL(cmd.Context(), src)
			if err != nil {
				return fmt.Errorf("read %s: %w", src, err)
			}
			logger.Info("submitting process description", "source", src, "bytes", len(data))

			contentType := "text/plain"
			switch strings.ToLower(path.Ext(src)) {
			case ".yaml", ".yml":
				contentType = "application/yaml"
			}

			var res submitResult
			query := "?name=" + url.QueryEscape(path.Base(src))
			if _, err := client.Post("/api/v1/simulations"+query, contentType, data, &res); err != nil {
				return fmt.Errorf("submit: %w", err)
			}

			out := cmd.OutOrStdout()
			if !quiet {
				for _, line := range res.Trace {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "Run created: %s (%s, %d ticks, %.2f%% utilization)\n",
				res.Run.ID, res.Run.State, res.Run.Ticks, res.Utilization*100)

			if res.Run.State == model.RunStateFailed {
				return fmt.Errorf("run %s failed: %s", res.Run.ID, res.Run.Error)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print only the run summary line")
	return cmd
}
