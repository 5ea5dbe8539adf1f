package cli

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cafepos/internal/clock"
	"github.com/smallbiznis/cafepos/internal/config"
	"github.com/smallbiznis/cafepos/internal/metricspush"
	"github.com/smallbiznis/cafepos/internal/migration"
	"github.com/smallbiznis/cafepos/internal/observability"
	"github.com/smallbiznis/cafepos/internal/server"
	"github.com/smallbiznis/cafepos/pkg/db"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

// NewServeCommand runs the HTTP API until interrupted.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fx.New(serveOptions(opts.EnvFile))
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
}

func serveOptions(envFile string) fx.Option {
	return fx.Options(
		config.Module(envFile),
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		metricspush.Module,
		server.Module,
	)
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
