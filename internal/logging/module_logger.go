package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-sitetree/pkg/interfaces"
)

const (
	rootModule      = "sitetree"
	pagesModule     = "sitetree.pages"
	schedulerModule = "sitetree.scheduler"
	taskQueueModule = "sitetree.taskqueue"
	redirectsModule = "sitetree.redirects"
)

const (
	fieldPageID = "page_id"
	fieldLocale = "locale"
	fieldPath   = "path"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The returned logger attaches
// the module identifier as structured context so downstream entries can be
// filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		return fieldsLogger.WithFields(map[string]any{
			"module": module,
		})
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// RootLogger returns the top-level module logger.
func RootLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, rootModule)
}

// PagesLogger returns the logger namespace reserved for the page tree service.
func PagesLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, pagesModule)
}

// SchedulerLogger returns the logger namespace reserved for scheduler workers.
func SchedulerLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, schedulerModule)
}

// TaskQueueLogger returns the logger namespace reserved for the task queue.
func TaskQueueLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, taskQueueModule)
}

// RedirectsLogger returns the logger namespace reserved for the redirect registry.
func RedirectsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, redirectsModule)
}

// WithPageContext enriches the provided logger with common page fields such as
// page id, locale, and path. Empty values are ignored.
func WithPageContext(logger interfaces.Logger, pageID, locale, path string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(pageID); trimmed != "" {
		fields[fieldPageID] = trimmed
	}
	if trimmed := strings.TrimSpace(locale); trimmed != "" {
		fields[fieldLocale] = trimmed
	}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		fields[fieldPath] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every log entry. It satisfies the Logger
// contract so services can safely operate when logging is disabled.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
