package cmd

import "github.com/spf13/cobra"

// standaloneAnnotation marks commands that run without the wired app, so
// they keep working when the settings file is broken.
const standaloneAnnotation = "sf/standalone"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var printMetrics bool

	rootCmd := &cobra.Command{
		Use:           "sf",
		Short:         "SiteForgeAI CLI (sf): build and manage AI-generated websites",
		Long:          "sf is a terminal client for SiteForgeAI. It signs you in, shows your dashboard and AI credits, manages projects, and generates websites from a short business description.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().BoolVar(&printMetrics, "metrics", false, "Print client metrics to stderr after the command")

	app, wireErr := wireApp(rootCmd.ErrOrStderr())

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if wireErr != nil && !standalone(cmd) {
			return wireErr
		}
		return nil
	}
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, _ []string) error {
		if app != nil {
			app.close()
		}
		if !printMetrics {
			return nil
		}
		return writeMetrics(cmd.ErrOrStderr(), false)
	}

	rootCmd.AddCommand(
		standaloneCmd(newVersionCmd()),
		newLoginCmd(app),
		newSignupCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newDashboardCmd(app),
		newProjectsCmd(app),
		newTemplatesCmd(app),
		newMediaCmd(app),
		newStatsCmd(app),
		newUsageCmd(app),
		newSubscriptionCmd(app),
		newAdminCmd(app),
		newWebsiteCmd(app),
		standaloneCmd(newConfigCmd()),
		newDebugCmd(app),
	)

	return rootCmd
}

func standaloneCmd(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[standaloneAnnotation] = "true"
	return cmd
}

func standalone(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[standaloneAnnotation] == "true" {
			return true
		}
	}
	return false
}
