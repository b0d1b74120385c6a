package cmd

import (
	"fmt"

	dashboardrender "github.com/bnema/siteforge-cli/internal/adapters/render/dashboard"
	"github.com/bnema/siteforge-cli/internal/application"
	"github.com/bnema/siteforge-cli/internal/domain"
	"github.com/bnema/siteforge-cli/internal/guard"
	"github.com/spf13/cobra"
)

func newStatsCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show your project statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var stats domain.ClientStats
			granted, err := app.view(cmd, guard.Authenticated, asJSON, application.Load(app.rt.ClientStats, &stats))
			if err != nil || !granted {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			return writeRendered(cmd.OutOrStdout(), func() (string, error) {
				return dashboardrender.RenderClientStats(stats)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newUsageCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "usage",
		Aliases: []string{"credits"},
		Short:   "Show AI generation credits",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				usage domain.AIUsage
				sub   domain.SubscriptionState
			)
			granted, err := app.view(cmd, guard.Authenticated, asJSON,
				application.Load(app.rt.AIUsage, &usage),
				application.Load(app.rt.Subscription, &sub),
			)
			if err != nil || !granted {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), struct {
					Usage        domain.AIUsage           `json:"usage"`
					Subscription domain.SubscriptionState `json:"subscription"`
				}{usage, sub})
			}
			return writeRendered(cmd.OutOrStdout(), func() (string, error) {
				return dashboardrender.RenderUsage(usage, &sub)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newSubscriptionCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "subscription",
		Short: "Show plan and billing status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var sub domain.SubscriptionState
			granted, err := app.view(cmd, guard.Authenticated, asJSON, application.Load(app.rt.Subscription, &sub))
			if err != nil || !granted {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), sub)
			}

			ai := "enabled"
			if !sub.CanUseAI {
				ai = "disabled"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "plan: %s\nstatus: %s\nAI features: %s\n", sub.PlanType, sub.Status, ai)
			if err == nil && sub.IsBlocked {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "Payment required: your subscription has expired or payment failed.")
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
