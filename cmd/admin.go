package cmd

import (
	"context"
	"fmt"

	dashboardrender "github.com/bnema/siteforge-cli/internal/adapters/render/dashboard"
	"github.com/bnema/siteforge-cli/internal/application"
	"github.com/bnema/siteforge-cli/internal/domain"
	"github.com/bnema/siteforge-cli/internal/guard"
	"github.com/spf13/cobra"
)

func newAdminCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Platform administration (admins only)",
	}

	cmd.AddCommand(
		newAdminStatsCmd(app),
		newAdminUsersCmd(app),
		newAdminAnalyticsCmd(app),
		newAdminSetRoleCmd(app),
		newAdminDeleteUserCmd(app),
	)
	return cmd
}

func newAdminStatsCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show platform statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var stats domain.AdminStats
			granted, err := app.view(cmd, guard.AdminOnly, asJSON, application.Load(app.rt.AdminStats, &stats))
			if err != nil || !granted {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			return writeRendered(cmd.OutOrStdout(), func() (string, error) {
				return dashboardrender.RenderAdminStats(stats)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newAdminUsersCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List every user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var users []domain.UserSafe
			granted, err := app.view(cmd, guard.AdminOnly, asJSON, application.Load(app.rt.AdminUsers, &users))
			if err != nil || !granted {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), users)
			}
			return writeRendered(cmd.OutOrStdout(), func() (string, error) {
				return dashboardrender.RenderUsers(users, app.renderOptions())
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newAdminAnalyticsCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show platform analytics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var analytics domain.AdminAnalytics
			granted, err := app.view(cmd, guard.AdminOnly, asJSON, application.Load(app.rt.AdminAnalytics, &analytics))
			if err != nil || !granted {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), analytics)
			}
			return writeRendered(cmd.OutOrStdout(), func() (string, error) {
				return dashboardrender.RenderAnalytics(analytics)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newAdminSetRoleCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <user-id> <ADMIN|CLIENT>",
		Short: "Change a user's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := domain.ParseRole(args[1])
			if err != nil {
				return err
			}
			if err := app.requireAdmin(cmd.Context()); err != nil {
				return err
			}
			user, err := app.rt.UpdateUserRole(cmd.Context(), application.UpdateUserRoleCommand{ID: args[0], Role: role})
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> is now %s\n", user.Name, user.Email, user.Role)
			return err
		},
	}
}

func newAdminDeleteUserCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-user <user-id>",
		Short: "Delete a user and their projects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireAdmin(cmd.Context()); err != nil {
				return err
			}
			if err := app.rt.DeleteUser(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %s\n", args[0])
			return err
		},
	}
}

func (a *app) requireAdmin(ctx context.Context) error {
	user, err := a.requireSession(ctx)
	if err != nil {
		return err
	}
	if !user.IsAdmin() {
		return fmt.Errorf("%w: admin role required", domain.ErrAuthorizationDenied)
	}
	return nil
}
