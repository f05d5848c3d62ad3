package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hamed0406/wazuhcheck/internal/catalog"
	"github.com/hamed0406/wazuhcheck/internal/report"
)

func newRunCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "run [check...]",
		Short: "Run checks once and exit non-zero if any failed",
		Long: `Run the named checks, or all of them, once. Each check makes a single
attempt; there are no retries. Degraded results (a TLS failure where the
port still accepts TCP connections) count as passed.

Checks: ` + fmt.Sprint(catalog.Names),
		ValidArgs: catalog.Names,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := report.ParseFormat(output)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.run(ctx, cmd, format, args)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format (text, json, yaml)")
	cmd.Flags().Int("concurrency", 1, "checks to run at once (1 runs them one after another)")
	return cmd
}

func (a *app) run(ctx context.Context, cmd *cobra.Command, format report.Format, names []string) error {
	rep, err := catalog.NewSuite(a.cfg, a.log).Run(ctx, names...)
	if err != nil {
		return err
	}
	if err := report.Write(cmd.OutOrStdout(), format, rep); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := rep.Err(); err != nil {
		if format != report.FormatText {
			// text output already lists the failures on stdout
			fmt.Fprintln(cmd.ErrOrStderr(), err)
		}
		return fmt.Errorf("%w: %w", errChecksFailed, err)
	}
	return nil
}
