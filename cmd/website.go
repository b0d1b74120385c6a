package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bnema/siteforge-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newWebsiteCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "website",
		Short: "Generate and download AI-built websites",
	}

	cmd.AddCommand(
		newWebsiteGenerateCmd(app),
		newWebsiteRegenerateCmd(app),
		newWebsiteDownloadCmd(app),
	)
	return cmd
}

func newWebsiteGenerateCmd(app *app) *cobra.Command {
	var (
		req    domain.GenerateWebsiteRequest
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a website from a business description",
		Long:  "Generate consumes one AI credit. Free plans include a fixed number of generations; see `sf usage`.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := req.Validate(); err != nil {
				return err
			}
			if _, err := app.requireSession(cmd.Context()); err != nil {
				return err
			}

			var project domain.Project
			generate := func(ctx context.Context) error {
				var err error
				project, err = app.rt.GenerateWebsite(ctx, req)
				return err
			}

			var err error
			if asJSON {
				err = generate(cmd.Context())
			} else {
				err = runWithSpinner(cmd.Context(), cmd.ErrOrStderr(), "Generating your website...", generate)
			}
			if err != nil {
				return explainGenerateError(err)
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), project)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Generated %s (%s). Publish it with `sf projects publish %s`.\n", project.Name, project.ID, project.ID)
			return err
		},
	}
	cmd.Flags().StringVar(&req.BusinessName, "name", "", "Business name")
	cmd.Flags().StringVar(&req.BusinessType, "type", "", "Business type, for example bakery or consulting")
	cmd.Flags().StringVar(&req.Description, "description", "", "What the business does")
	cmd.Flags().StringVar(&req.PrimaryColor, "color", domain.DefaultPrimaryColor, "Primary color as #RRGGBB")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func newWebsiteRegenerateCmd(app *app) *cobra.Command {
	var req domain.RegenerateSectionRequest

	cmd := &cobra.Command{
		Use:   "regenerate <project-id>",
		Short: "Regenerate one section of a generated website",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.ProjectID = args[0]
			if err := req.Validate(); err != nil {
				return err
			}
			if _, err := app.requireSession(cmd.Context()); err != nil {
				return err
			}

			var project domain.Project
			err := runWithSpinner(cmd.Context(), cmd.ErrOrStderr(), "Regenerating "+req.SectionName+"...", func(ctx context.Context) error {
				var err error
				project, err = app.rt.RegenerateSection(ctx, req)
				return err
			})
			if err != nil {
				return explainGenerateError(err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Regenerated %s section of %s\n", req.SectionName, project.Name)
			return err
		},
	}
	cmd.Flags().StringVar(&req.SectionName, "section", "", "Section to regenerate, for example hero or about")
	cmd.Flags().StringVar(&req.Instructions, "instructions", "", "What to change")
	_ = cmd.MarkFlagRequired("section")
	_ = cmd.MarkFlagRequired("instructions")
	return cmd
}

func newWebsiteDownloadCmd(app *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download <project-id>",
		Short: "Download a website as a zip archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if err := domain.ValidateID("id", id); err != nil {
				return err
			}
			if _, err := app.requireSession(cmd.Context()); err != nil {
				return err
			}
			if output == "" {
				output = "website-" + id + ".zip"
			}

			tmp, err := os.CreateTemp(filepath.Dir(output), ".sf-download-*")
			if err != nil {
				return fmt.Errorf("create download file: %w", err)
			}
			defer func() { _ = os.Remove(tmp.Name()) }()

			n, err := app.rt.DownloadWebsite(cmd.Context(), id, tmp)
			if closeErr := tmp.Close(); err == nil {
				err = closeErr
			}
			if err != nil {
				return err
			}
			if err := os.Rename(tmp.Name(), output); err != nil {
				return fmt.Errorf("save download: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes)\n", output, n)
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (default website-<id>.zip)")
	return cmd
}

// explainGenerateError adds the upgrade hint the web dashboard shows when the
// server refuses an AI request.
func explainGenerateError(err error) error {
	if errors.Is(err, domain.ErrAuthorizationDenied) {
		return fmt.Errorf("%w\nAI generation is unavailable on your plan: check `sf usage` and upgrade to keep generating", err)
	}
	return err
}
