package config

import (
	"github.com/pseudomuto/adpt/pkg/credentials"
	"go.uber.org/fx"
)

var Module = fx.Module("config", fx.Provide(
	fx.Annotate(credentials.NewKeyring, fx.As(new(credentials.Store))),
	// Resolves whatever configuration is available. Missing values are left empty
	// so that commands which don't talk to the platform (config, set-api-key,
	// help) still work on a fresh install.
	func(keys credentials.Store) (*Config, error) {
		return Load(Options{Keys: keys})
	},
))
