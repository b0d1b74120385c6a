package cmd

import (
	"fmt"

	"github.com/bnema/siteforge-cli/internal/config"
	"github.com/bnema/siteforge-cli/internal/domain"
	"github.com/spf13/cobra"
)

// newConfigCmd works without a wired app so a broken settings file can still
// be inspected and repaired.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change CLI settings",
	}

	cmd.AddCommand(newConfigShowCmd(), newConfigSetCmd(), newConfigResetCmd(), newConfigPathCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var (
		asJSON    bool
		effective bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the settings file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := settingsRepository()
			if err != nil {
				return err
			}

			var settings domain.Settings
			if effective {
				resolved, err := config.Load(cmd.Context(), repo)
				if err != nil {
					return err
				}
				settings = resolved.Settings
			} else {
				settings, err = repo.Load(cmd.Context())
				if err != nil {
					return err
				}
			}

			values := make(map[string]string, len(domain.SettingKeys))
			for _, key := range domain.SettingKeys {
				v, err := settings.Get(key)
				if err != nil {
					return err
				}
				values[key] = v
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), values)
			}

			out := cmd.OutOrStdout()
			for _, key := range domain.SettingKeys {
				if _, err := fmt.Fprintf(out, "%s = %s\n", key, values[key]); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&effective, "effective", false, "Apply "+config.Prefix+"_* environment overrides")
	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting",
		Long:  "Keys: api.base_url, api.timeout, cache.retention, cache.retries, session.token_backend, session.token_dir, log.level.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := settingsRepository()
			if err != nil {
				return err
			}
			settings, err := repo.Load(cmd.Context())
			if err != nil {
				return err
			}
			if err := settings.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := repo.Save(cmd.Context(), settings); err != nil {
				return err
			}

			v, _ := settings.Get(args[0])
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], v)
			return err
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the settings file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := settingsRepository()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), repo.Path())
			return err
		},
	}
}

func newConfigResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Overwrite the settings file with the defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := settingsRepository()
			if err != nil {
				return err
			}
			if err := repo.Save(cmd.Context(), domain.DefaultSettings()); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Reset %s\n", repo.Path())
			return err
		},
	}
}
