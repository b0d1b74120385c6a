package cmd

import (
	"fmt"

	dashboardrender "github.com/bnema/siteforge-cli/internal/adapters/render/dashboard"
	"github.com/bnema/siteforge-cli/internal/application"
	"github.com/bnema/siteforge-cli/internal/domain"
	"github.com/bnema/siteforge-cli/internal/guard"
	"github.com/spf13/cobra"
)

func newProjectsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "Manage your website projects",
	}

	cmd.AddCommand(
		newProjectsListCmd(app),
		newProjectsGetCmd(app),
		newProjectsCreateCmd(app),
		newProjectsUpdateCmd(app),
		newProjectsPublishCmd(app),
		newProjectsDeleteCmd(app),
	)
	return cmd
}

func newProjectsListCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var projects []domain.Project
			granted, err := app.view(cmd, guard.Authenticated, asJSON, application.Load(app.rt.Projects, &projects))
			if err != nil || !granted {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), projects)
			}
			return writeRendered(cmd.OutOrStdout(), func() (string, error) {
				return dashboardrender.RenderProjects(projects, app.renderOptions())
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newProjectsGetCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := domain.ValidateID("id", args[0]); err != nil {
				return err
			}
			var project domain.Project
			open := func() *application.Query[domain.Project] { return app.rt.Project(args[0]) }
			granted, err := app.view(cmd, guard.Authenticated, asJSON, application.Load(open, &project))
			if err != nil || !granted {
				return err
			}
			return writeProject(cmd, app, project, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newProjectsCreateCmd(app *app) *cobra.Command {
	var (
		in     domain.ProjectInput
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an empty project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := app.requireSession(cmd.Context()); err != nil {
				return err
			}
			project, err := app.rt.CreateProject(cmd.Context(), in)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), project)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (%s)\n", project.Name, project.ID)
			return err
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "Project name")
	cmd.Flags().StringVar(&in.Description, "description", "", "Project description")
	cmd.Flags().StringVar(&in.TemplateID, "template", "", "Template ID to start from")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newProjectsUpdateCmd(app *app) *cobra.Command {
	var (
		name, description, status, domainName string
		asJSON                                bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change project fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch domain.ProjectPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = &name
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("status") {
				s := domain.ProjectStatus(status)
				patch.Status = &s
			}
			if flags.Changed("domain") {
				patch.Domain = &domainName
			}

			if _, err := app.requireSession(cmd.Context()); err != nil {
				return err
			}
			project, err := app.rt.UpdateProject(cmd.Context(), application.UpdateProjectCommand{ID: args[0], Patch: patch})
			if err != nil {
				return err
			}
			return writeProject(cmd, app, project, asJSON)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New project name")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&status, "status", "", "New status: draft, published or archived")
	cmd.Flags().StringVar(&domainName, "domain", "", "Custom domain")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newProjectsPublishCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <id>",
		Short: "Publish a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.requireSession(cmd.Context()); err != nil {
				return err
			}
			project, err := app.rt.PublishProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Published %s (%s)\n", project.Name, project.ID)
			return err
		},
	}
}

func newProjectsDeleteCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a project",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.requireSession(cmd.Context()); err != nil {
				return err
			}
			if err := app.rt.DeleteProject(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", args[0])
			return err
		},
	}
}

func writeProject(cmd *cobra.Command, app *app, project domain.Project, asJSON bool) error {
	if asJSON {
		return writeJSON(cmd.OutOrStdout(), project)
	}
	return writeRendered(cmd.OutOrStdout(), func() (string, error) {
		return dashboardrender.RenderProject(project, app.renderOptions())
	})
}
