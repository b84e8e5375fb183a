package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/bootstrap"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/extract"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/requirements"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/config"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/storage/db"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if strings.TrimSpace(cfg.DatabaseURL) == "" {
				return errors.New("DATABASE_URL is required")
			}
			ctx := cmd.Context()
			sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer sqlDB.Close()
			if err := db.RunMigrations(ctx, sqlDB); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func createAdminCmd(build buildFunc) *cobra.Command {
	var companyID, username, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account, or promote and reset an existing one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("BIDCTL_ADMIN_PASSWORD")
			}
			if companyID == "" || username == "" || password == "" {
				return errors.New("--company, --username and --password are required")
			}
			return withApp(cmd, build, func(ctx context.Context, app *bootstrap.App) error {
				u, created, err := app.Users.EnsureAdmin(ctx, companyID, username, password)
				if err != nil {
					return err
				}
				verb := "updated"
				if created {
					verb = "created"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s admin %s (%s) in company %s\n", verb, u.Username, u.ID, u.CompanyID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&companyID, "company", "", "company (tenant) id")
	cmd.Flags().StringVar(&username, "username", "", "login name")
	cmd.Flags().StringVar(&password, "password", "", "password (defaults to $BIDCTL_ADMIN_PASSWORD)")
	return cmd
}

func importSpecsCmd(build buildFunc) *cobra.Command {
	var companyID string
	cmd := &cobra.Command{
		Use:   "import-specs <workbook.xlsx>",
		Short: "Import a product specification workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if companyID == "" {
				return errors.New("--company is required")
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			return withApp(cmd, build, func(ctx context.Context, app *bootstrap.App) error {
				res, err := app.Specs.Import(ctx, companyID, f)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().StringVar(&companyID, "company", "", "company (tenant) id")
	return cmd
}

func scanExpiryCmd(build buildFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "scan-expiry",
		Short: "Run the qualification expiry scan for every company now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, build, func(ctx context.Context, app *bootstrap.App) error {
				results, err := app.Qualifications.ScanAll(ctx)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), results)
			})
		},
	}
}

func extractCmd(build buildFunc) *cobra.Command {
	var projectName string
	cmd := &cobra.Command{
		Use:   "extract <tender-file>",
		Short: "Extract requirements from a local tender document and print them",
		Long: `Runs the configured extractor (EXTRACTOR=rules|llm) on a PDF, DOC or DOCX
file without storing anything.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !extract.AllowedExtension(path) {
				return fmt.Errorf("unsupported file type %q", filepath.Ext(path))
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			return withApp(cmd, build, func(ctx context.Context, app *bootstrap.App) error {
				doc, err := extract.FromBytes(ctx, data, "", filepath.Base(path))
				if err != nil {
					return err
				}
				name := projectName
				if name == "" {
					name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
				}
				res, err := app.Extraction.Extractor.Extract(ctx, requirements.Input{Text: doc.Text, ProjectName: name})
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().StringVar(&projectName, "project", "", "project name passed to the extractor")
	return cmd
}
