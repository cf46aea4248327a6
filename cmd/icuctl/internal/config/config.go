package config

import (
	"context"

	"github.com/icuboard/icuboard/cmd/icuctl/internal/client"
)

type contextKey string

const configKey contextKey = "icuctl-config"

// GlobalConfig holds shared configuration for all icuctl commands.
// The root command's PersistentPreRunE injects it into the cobra command
// context; subcommands read it back with MustFromContext.
type GlobalConfig struct {
	Settings       *Settings
	NonInteractive bool
	ClientProvider *client.Provider
}

// InjectConfig adds config to the cobra command context.
func InjectConfig(ctx context.Context, cfg *GlobalConfig) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from the cobra command context.
// Returns (nil, false) if config is not present.
func FromContext(ctx context.Context) (*GlobalConfig, bool) {
	cfg, ok := ctx.Value(configKey).(*GlobalConfig)
	return cfg, ok
}

// MustFromContext retrieves config from context or panics.
func MustFromContext(ctx context.Context) *GlobalConfig {
	cfg, ok := FromContext(ctx)
	if !ok {
		panic("icuctl: config not found in context - this is a bug in icuctl")
	}
	return cfg
}
