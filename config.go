package sitetree

import "github.com/goliatone/go-sitetree/internal/runtimeconfig"

// Config re-exports the runtime configuration for module consumers.
type Config = runtimeconfig.Config

// SchedulerConfig re-exports scheduler timing configuration.
type SchedulerConfig = runtimeconfig.SchedulerConfig

// RedirectConfig re-exports redirect registry configuration.
type RedirectConfig = runtimeconfig.RedirectConfig

// Features re-exports feature toggles.
type Features = runtimeconfig.Features

// LoggingConfig re-exports logging configuration.
type LoggingConfig = runtimeconfig.LoggingConfig

// DefaultConfig returns opinionated defaults for an embedded setup.
func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
