package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

const metricsNamespace = "siteforge_client_"

func newDebugCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:    "debug",
		Short:  "Troubleshooting helpers",
		Hidden: true,
	}

	var all bool
	metricsCmd := &cobra.Command{
		Use:   "metrics",
		Short: "Warm the dashboard cache and print client metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if snap := app.rt.Init(cmd.Context()); snap.Authenticated() {
				if err := app.showDashboard(cmd, false); err != nil {
					app.logger.Warn().Err(err).Msg("dashboard load failed")
				}
			}
			return writeMetrics(cmd.OutOrStdout(), all)
		},
	}
	metricsCmd.Flags().BoolVar(&all, "all", false, "Include Go runtime and process metrics")

	cmd.AddCommand(metricsCmd)
	return cmd
}

// writeMetrics prints the default registry in the Prometheus text format.
// Without all, only the client's own families are written.
func writeMetrics(w io.Writer, all bool) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	for _, mf := range families {
		if !all && !strings.HasPrefix(mf.GetName(), metricsNamespace) {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
