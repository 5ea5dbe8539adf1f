package cli

import (
	"context"
	"time"

	"github.com/smallbiznis/cafepos/internal/config"
	"github.com/smallbiznis/cafepos/internal/migration"
	"github.com/smallbiznis/cafepos/internal/observability"
	"github.com/smallbiznis/cafepos/pkg/db"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

// NewMigrateCommand prepares the store schema and exits.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the sessions and products tables if they do not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fx.New(
				migrateOptions(opts.EnvFile),
				fx.NopLogger,
			)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			if err := app.Start(ctx); err != nil {
				return err
			}
			return app.Stop(ctx)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "give up if the store is not ready in time")
	return cmd
}

func migrateOptions(envFile string) fx.Option {
	return fx.Options(
		config.Module(envFile),
		observability.Module,
		db.Module,
		migration.Module,
	)
}
