package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bnema/siteforge-cli/internal/domain"
	"github.com/spf13/cobra"
)

type passwordFlags struct {
	password string
	stdin    bool
}

func (f *passwordFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.password, "password", "", "Account password")
	cmd.Flags().BoolVar(&f.stdin, "password-stdin", false, "Read the password from stdin")
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
	cmd.MarkFlagsOneRequired("password", "password-stdin")
}

func (f *passwordFlags) resolve(in io.Reader) (string, error) {
	if !f.stdin {
		return f.password, nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password from stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLoginCmd(app *app) *cobra.Command {
	var (
		email string
		pw    passwordFlags
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := pw.resolve(cmd.InOrStdin())
			if err != nil {
				return err
			}
			user, err := app.rt.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s <%s> (%s)\n", user.Name, user.Email, user.Role)
			return err
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	_ = cmd.MarkFlagRequired("email")
	pw.register(cmd)
	return cmd
}

func newSignupCmd(app *app) *cobra.Command {
	var (
		name  string
		email string
		pw    passwordFlags
	)

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := pw.resolve(cmd.InOrStdin())
			if err != nil {
				return err
			}
			user, err := app.rt.Signup(cmd.Context(), name, email, password)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s. Your %s plan includes %d AI generations.\n",
				user.Name, orDefault(string(user.PlanType), string(domain.PlanFree)), user.AIGenerationsLimit)
			return err
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	pw.register(cmd)
	return cmd
}

func newLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.rt.Logout(cmd.Context()); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return err
		},
	}
}

func newWhoamiCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := app.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), user)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\nrole: %s\nplan: %s\napi: %s\n",
				user.Name, user.Email, user.Role, orDefault(string(user.PlanType), string(domain.PlanFree)), app.settings.APIBaseURL)
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
