package cmd

import "github.com/spf13/cobra"

func newDashboardCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"home"},
		Short:   "Show the dashboard for your role",
		Long:    "Clients see their projects, stats and AI credits. Admins see platform stats and recent users.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.showDashboard(cmd, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
