package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrDefaultLocaleRequired              = errors.New("sitetree config: default locale is required")
	ErrSchedulerIntervalInvalid           = errors.New("sitetree config: scheduler interval must be positive")
	ErrSchedulerLeaseInvalid              = errors.New("sitetree config: scheduler lease must be positive and shorter than the interval")
	ErrSchedulerBatchSizeInvalid          = errors.New("sitetree config: scheduler batch size must be positive")
	ErrSchedulerMaxAttemptsInvalid        = errors.New("sitetree config: scheduler max attempts must be positive")
	ErrRedirectStatusCodeInvalid          = errors.New("sitetree config: redirect status code must be 301, 302, 307 or 308")
	ErrLoggingProviderRequired            = errors.New("sitetree config: logging provider is required when logging feature is enabled")
	ErrLoggingProviderUnknown             = errors.New("sitetree config: logging provider is invalid")
	ErrLoggingLevelInvalid                = errors.New("sitetree config: logging level is invalid")
	ErrLoggingFormatInvalid               = errors.New("sitetree config: logging format is invalid")
	ErrRedirectsFeatureRequired           = errors.New("sitetree config: redirects feature must be enabled to configure redirects")
	ErrSchedulingFeatureRequiredForWorker = errors.New("sitetree config: scheduler worker requires scheduling to be enabled")
)

// Config aggregates feature flags and adapter bindings for the sitetree
// module. Fields use simple types so host applications can extend them later.
type Config struct {
	Enabled       bool
	DefaultLocale string
	Storage       StorageConfig
	Cache         CacheConfig
	Scheduler     SchedulerConfig
	Redirects     RedirectConfig
	Features      Features
	Logging       LoggingConfig
}

// StorageConfig lists identifiers for storage-related dependencies.
type StorageConfig struct {
	Provider string
}

// CacheConfig captures cache behaviour toggles for repository reads.
type CacheConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
}

// SchedulerConfig captures worker timing. The lease shields a claimed task
// from other workers and must expire before the next tick claims strays.
type SchedulerConfig struct {
	Enabled     bool
	Interval    time.Duration
	Lease       time.Duration
	BatchSize   int
	MaxAttempts int
}

// RedirectConfig captures redirect registry behaviour.
type RedirectConfig struct {
	Enabled           bool
	DefaultStatusCode int
}

// Features toggles module functionality.
type Features struct {
	Scheduling bool
	Redirects  bool
	Activity   bool
	Logger     bool
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// DefaultConfig returns opinionated defaults for an embedded setup.
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		DefaultLocale: "en",
		Storage: StorageConfig{
			Provider: "memory",
		},
		Cache: CacheConfig{
			Enabled:    false,
			DefaultTTL: time.Minute,
		},
		Scheduler: SchedulerConfig{
			Enabled:     true,
			Interval:    60 * time.Second,
			Lease:       50 * time.Second,
			BatchSize:   50,
			MaxAttempts: 3,
		},
		Redirects: RedirectConfig{
			Enabled:           true,
			DefaultStatusCode: 301,
		},
		Features: Features{
			Scheduling: true,
			Redirects:  true,
			Activity:   true,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.DefaultLocale) == "" {
		return ErrDefaultLocaleRequired
	}
	if cfg.Scheduler.Enabled && !cfg.Features.Scheduling {
		return ErrSchedulingFeatureRequiredForWorker
	}
	if cfg.Features.Scheduling {
		if cfg.Scheduler.Interval <= 0 {
			return ErrSchedulerIntervalInvalid
		}
		if cfg.Scheduler.Lease <= 0 || cfg.Scheduler.Lease >= cfg.Scheduler.Interval {
			return ErrSchedulerLeaseInvalid
		}
		if cfg.Scheduler.BatchSize <= 0 {
			return ErrSchedulerBatchSizeInvalid
		}
		if cfg.Scheduler.MaxAttempts <= 0 {
			return ErrSchedulerMaxAttemptsInvalid
		}
	}
	if cfg.Redirects.Enabled && !cfg.Features.Redirects {
		return ErrRedirectsFeatureRequired
	}
	if cfg.Redirects.Enabled {
		switch cfg.Redirects.DefaultStatusCode {
		case 0, 301, 302, 307, 308:
		default:
			return ErrRedirectStatusCodeInvalid
		}
	}
	if cfg.Features.Logger {
		provider := normalizeProvider(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
