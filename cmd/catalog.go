package cmd

import (
	dashboardrender "github.com/bnema/siteforge-cli/internal/adapters/render/dashboard"
	"github.com/bnema/siteforge-cli/internal/application"
	"github.com/bnema/siteforge-cli/internal/domain"
	"github.com/bnema/siteforge-cli/internal/guard"
	"github.com/spf13/cobra"
)

func newTemplatesCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List website templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var templates []domain.Template
			granted, err := app.view(cmd, guard.Authenticated, asJSON, application.Load(app.rt.Templates, &templates))
			if err != nil || !granted {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), templates)
			}
			return writeRendered(cmd.OutOrStdout(), func() (string, error) {
				return dashboardrender.RenderTemplates(templates)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newMediaCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "media",
		Short: "List uploaded media",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var media []domain.Media
			granted, err := app.view(cmd, guard.Authenticated, asJSON, application.Load(app.rt.Media, &media))
			if err != nil || !granted {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), media)
			}
			return writeRendered(cmd.OutOrStdout(), func() (string, error) {
				return dashboardrender.RenderMedia(media, app.renderOptions())
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
