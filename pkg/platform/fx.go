package platform

import (
	"github.com/pseudomuto/adpt/pkg/config"
	"go.uber.org/fx"
)

var Module = fx.Module("platform", fx.Provide(
	// Returns a nil client when the configuration is incomplete. Commands that
	// need one check config.Validate first and report what's missing.
	func(cfg *config.Config) (*Client, error) {
		if cfg == nil || cfg.Validate() != nil {
			return nil, nil
		}

		return New(cfg.BaseURL, cfg.APIKey)
	},
))
