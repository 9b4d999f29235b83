package sitetree

import (
	"context"

	"github.com/goliatone/go-sitetree/internal/di"
	"github.com/goliatone/go-sitetree/internal/jobs"
	"github.com/goliatone/go-sitetree/internal/locales"
	"github.com/goliatone/go-sitetree/internal/pages"
	"github.com/goliatone/go-sitetree/internal/redirects"
	"github.com/goliatone/go-sitetree/pkg/activity"
	"github.com/goliatone/go-sitetree/pkg/interfaces"
)

// PageService exports the page tree service contract.
type PageService = pages.Service

// RedirectService exports the redirect registry contract.
type RedirectService = redirects.Service

// TaskQueue exports the deferred task queue contract.
type TaskQueue = interfaces.TaskQueue

// Page exports the page model.
type Page = pages.Page

// PathChange exports the path rewrite record.
type PathChange = pages.PathChange

// MoveResult exports the move operation result.
type MoveResult = pages.MoveResult

// RebuildResult exports the rebuild operation result.
type RebuildResult = pages.RebuildResult

// Locale exports the locale model.
type Locale = locales.Locale

// Redirect exports the redirect model.
type Redirect = redirects.Redirect

// Module is the top level sitetree runtime facade.
type Module struct {
	container *di.Container
}

// Option re-exports container overrides.
type Option = di.Option

// WithDB supplies the bun database used by the bun storage provider.
var WithDB = di.WithDB

// WithLoggerProvider overrides logger construction.
var WithLoggerProvider = di.WithLoggerProvider

// WithClock pins the module clock.
var WithClock = di.WithClock

// WithCache enables repository read caching.
var WithCache = di.WithCache

// WithActivitySink registers an additional activity consumer.
var WithActivitySink = di.WithActivitySink

// New constructs a sitetree module from the provided configuration.
func New(cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying wiring for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Pages returns the configured page service.
func (m *Module) Pages() PageService {
	return m.container.PageService()
}

// Redirects returns the redirect service, nil when redirects are disabled.
func (m *Module) Redirects() RedirectService {
	return m.container.RedirectService()
}

// Queue returns the task queue, nil when scheduling is disabled.
func (m *Module) Queue() TaskQueue {
	return m.container.TaskQueue()
}

// Locales returns the locale repository.
func (m *Module) Locales() locales.Repository {
	return m.container.Locales()
}

// Emitter returns the activity emitter, nil when activity is disabled.
func (m *Module) Emitter() *activity.Emitter {
	return m.container.Emitter()
}

// Scheduler returns the periodic runner, nil when the worker is disabled.
func (m *Module) Scheduler() *jobs.Runner {
	return m.container.Runner()
}

// StartScheduler blocks running the periodic worker until ctx ends. It is a
// no-op when the worker is disabled.
func (m *Module) StartScheduler(ctx context.Context) error {
	runner := m.container.Runner()
	if runner == nil {
		return nil
	}
	return runner.Start(ctx)
}

// EnsureLocale registers a locale if missing and returns the stored record.
func (m *Module) EnsureLocale(ctx context.Context, code, display string, isDefault bool) (*Locale, error) {
	return m.container.EnsureLocale(ctx, code, display, isDefault)
}
