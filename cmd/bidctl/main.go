// bidctl runs maintenance tasks against a medi-bid-flow deployment.
//
// Usage:
//
//	bidctl migrate
//	bidctl create-admin --company acme --username admin --password '...'
//	bidctl import-specs --company acme specs.xlsx
//	bidctl scan-expiry
//	bidctl extract tender.pdf
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/bootstrap"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/config"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/telemetry"
)

var version = "dev"

// buildFunc constructs the application the commands operate on.
type buildFunc func(ctx context.Context) (*bootstrap.App, error)

func main() {
	defer telemetry.Sync()
	build := func(ctx context.Context) (*bootstrap.App, error) {
		return bootstrap.Build(ctx, config.Load())
	}
	if err := newRootCmd(build).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(build buildFunc) *cobra.Command {
	root := &cobra.Command{
		Use:           "bidctl",
		Short:         "Maintenance commands for the bid engine",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(migrateCmd())
	root.AddCommand(createAdminCmd(build))
	root.AddCommand(importSpecsCmd(build))
	root.AddCommand(scanExpiryCmd(build))
	root.AddCommand(extractCmd(build))
	return root
}

// withApp builds the application for the duration of one command.
func withApp(cmd *cobra.Command, build buildFunc, fn func(ctx context.Context, app *bootstrap.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := build(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer app.Close()
	if app.DB == nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: no database configured, changes are kept in memory only")
	}
	return fn(ctx, app)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
