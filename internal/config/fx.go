package config

import "go.uber.org/fx"

// Module provides Config loaded from envFile, or ./.env when envFile is empty.
func Module(envFile string) fx.Option {
	return fx.Module("config",
		fx.Provide(func() Config { return LoadFrom(envFile) }),
	)
}
