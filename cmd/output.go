package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	dashboardrender "github.com/bnema/siteforge-cli/internal/adapters/render/dashboard"
	"github.com/bnema/siteforge-cli/internal/application"
	"github.com/bnema/siteforge-cli/internal/domain"
	"github.com/bnema/siteforge-cli/internal/guard"
	"github.com/spf13/cobra"
)

var errLoginRequired = errors.New("not signed in: run `sf login` first")

// requireSession resolves the persisted session and returns the signed-in
// user.
func (a *app) requireSession(ctx context.Context) (domain.UserSafe, error) {
	snap := a.rt.Init(ctx)
	if !snap.Authenticated() {
		return domain.UserSafe{}, errLoginRequired
	}
	return *snap.User, nil
}

// view runs loaders behind the guard for req. A denied decision is followed
// the way a browser would follow the redirect, and reports false.
func (a *app) view(cmd *cobra.Command, req guard.Requirement, asJSON bool, loaders ...application.Loader) (bool, error) {
	ctx := cmd.Context()
	a.rt.Init(ctx)

	decision, err := a.rt.View(ctx, req, loaders...)
	if err != nil {
		return false, err
	}
	if decision.Granted() {
		return true, nil
	}
	return false, a.navigate(cmd, decision.RedirectTo, asJSON)
}

func (a *app) navigate(cmd *cobra.Command, route string, asJSON bool) error {
	a.logger.Debug().Str("route", route).Msg("redirected")

	switch route {
	case guard.RouteClientHome:
		return a.showClientDashboard(cmd, asJSON)
	case guard.RouteAdminHome:
		return a.showAdminDashboard(cmd, asJSON)
	default:
		return errLoginRequired
	}
}

func (a *app) showDashboard(cmd *cobra.Command, asJSON bool) error {
	user, err := a.requireSession(cmd.Context())
	if err != nil {
		return err
	}
	return a.navigate(cmd, guard.DefaultRoute(user.Role), asJSON)
}

func (a *app) showClientDashboard(cmd *cobra.Command, asJSON bool) error {
	d, decision, err := a.rt.ClientDashboard(cmd.Context())
	if err != nil {
		return err
	}
	if !decision.Granted() {
		return errLoginRequired
	}

	if asJSON {
		return writeJSON(cmd.OutOrStdout(), clientDashboardJSON{
			User:         d.User,
			Stats:        d.Stats,
			Usage:        d.Usage,
			Subscription: d.Subscription,
			Projects:     d.Projects,
			Errors:       errorStrings(d.Errors),
		})
	}
	return writeRendered(cmd.OutOrStdout(), func() (string, error) {
		return dashboardrender.RenderClient(d, a.renderOptions())
	})
}

func (a *app) showAdminDashboard(cmd *cobra.Command, asJSON bool) error {
	d, decision, err := a.rt.AdminDashboard(cmd.Context())
	if err != nil {
		return err
	}
	if !decision.Granted() {
		if decision.RedirectTo == guard.RouteClientHome {
			return a.showClientDashboard(cmd, asJSON)
		}
		return errLoginRequired
	}

	if asJSON {
		return writeJSON(cmd.OutOrStdout(), adminDashboardJSON{
			User:   d.User,
			Stats:  d.Stats,
			Users:  d.Users,
			Errors: errorStrings(d.Errors),
		})
	}
	return writeRendered(cmd.OutOrStdout(), func() (string, error) {
		return dashboardrender.RenderAdmin(d, a.renderOptions())
	})
}

func (a *app) renderOptions() dashboardrender.RenderOptions {
	return dashboardrender.RenderOptions{Now: a.now()}
}

type clientDashboardJSON struct {
	User         domain.UserSafe          `json:"user"`
	Stats        domain.ClientStats       `json:"stats"`
	Usage        domain.AIUsage           `json:"usage"`
	Subscription domain.SubscriptionState `json:"subscription"`
	Projects     []domain.Project         `json:"projects"`
	Errors       []string                 `json:"errors,omitempty"`
}

type adminDashboardJSON struct {
	User   domain.UserSafe   `json:"user"`
	Stats  domain.AdminStats `json:"stats"`
	Users  []domain.UserSafe `json:"users"`
	Errors []string          `json:"errors,omitempty"`
}

func errorStrings(errs []error) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		out = append(out, err.Error())
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeRendered(w io.Writer, render func() (string, error)) error {
	output, err := render()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, output)
	return err
}
