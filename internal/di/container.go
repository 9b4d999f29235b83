package di

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-repository-cache/cache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-sitetree/internal/identity"
	"github.com/goliatone/go-sitetree/internal/jobs"
	"github.com/goliatone/go-sitetree/internal/locales"
	"github.com/goliatone/go-sitetree/internal/logging"
	"github.com/goliatone/go-sitetree/internal/logging/console"
	"github.com/goliatone/go-sitetree/internal/logging/gologger"
	"github.com/goliatone/go-sitetree/internal/pages"
	"github.com/goliatone/go-sitetree/internal/redirects"
	"github.com/goliatone/go-sitetree/internal/runtimeconfig"
	"github.com/goliatone/go-sitetree/internal/taskqueue"
	"github.com/goliatone/go-sitetree/pkg/activity"
	"github.com/goliatone/go-sitetree/pkg/interfaces"
)

// ErrDatabaseRequired reports bun storage selected without a database handle.
var ErrDatabaseRequired = errors.New("sitetree: bun storage requires a database, use WithDB")

// Container wires repositories, services, and the scheduler from one config.
type Container struct {
	cfg runtimeconfig.Config

	db              *bun.DB
	loggerProvider  interfaces.LoggerProvider
	clock           func() time.Time
	cacheService    cache.CacheService
	cacheSerializer cache.KeySerializer
	sinks           []activity.Sink

	emitter         *activity.Emitter
	localeRepo      locales.Repository
	pageRepo        pages.PageRepository
	redirectRepo    redirects.Repository
	queue           interfaces.TaskQueue
	pageService     pages.Service
	redirectService redirects.Service
	audit           *jobs.MemoryAuditRecorder
	worker          *jobs.Worker
	runner          *jobs.Runner
}

// Option overrides container defaults.
type Option func(*Container)

// WithDB supplies the bun database used by the bun storage provider.
func WithDB(db *bun.DB) Option {
	return func(c *Container) {
		c.db = db
	}
}

// WithLoggerProvider overrides logger construction entirely.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithClock pins the clock used by every service.
func WithClock(clock func() time.Time) Option {
	return func(c *Container) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithCache enables read caching on the bun repositories.
func WithCache(service cache.CacheService, serializer cache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.cacheSerializer = serializer
	}
}

// WithActivitySink registers an additional activity consumer.
func WithActivitySink(sink activity.Sink) Option {
	return func(c *Container) {
		if sink != nil {
			c.sinks = append(c.sinks, sink)
		}
	}
}

// NewContainer validates the config and builds the object graph.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{
		cfg:   cfg,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.buildLogging(); err != nil {
		return nil, err
	}
	if err := c.buildStorage(); err != nil {
		return nil, err
	}
	c.buildActivity()
	c.buildServices()
	c.buildScheduler()
	return c, nil
}

func (c *Container) buildLogging() error {
	if c.loggerProvider != nil {
		return nil
	}
	if !c.cfg.Features.Logger {
		c.loggerProvider = noopProvider{}
		return nil
	}

	switch strings.ToLower(strings.TrimSpace(c.cfg.Logging.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     c.cfg.Logging.Level,
			Format:    c.cfg.Logging.Format,
			AddSource: c.cfg.Logging.AddSource,
			Focus:     c.cfg.Logging.Focus,
		})
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	default:
		level := console.ParseLevel(c.cfg.Logging.Level)
		c.loggerProvider = console.NewProvider(console.Options{MinLevel: &level})
	}
	return nil
}

func (c *Container) buildStorage() error {
	provider := strings.ToLower(strings.TrimSpace(c.cfg.Storage.Provider))
	if provider == "bun" {
		if c.db == nil {
			return ErrDatabaseRequired
		}
		c.localeRepo = locales.NewBunRepository(c.db)
		c.pageRepo = pages.NewBunRepositoryWithCache(c.db, c.cacheService, c.cacheSerializer)
		c.redirectRepo = redirects.NewBunRepositoryWithCache(c.db, c.cacheService, c.cacheSerializer)
		if c.cfg.Features.Scheduling {
			c.queue = taskqueue.NewBunQueue(c.db,
				taskqueue.WithBunClock(c.clock),
				taskqueue.WithBunLease(c.cfg.Scheduler.Lease),
				taskqueue.WithBunMaxAttempts(c.cfg.Scheduler.MaxAttempts),
			)
		}
		return nil
	}

	c.localeRepo = locales.NewMemoryRepository()
	c.pageRepo = pages.NewMemoryRepository()
	c.redirectRepo = redirects.NewMemoryRepository()
	if c.cfg.Features.Scheduling {
		c.queue = taskqueue.NewMemoryQueue(
			taskqueue.WithMemoryClock(c.clock),
			taskqueue.WithMemoryLease(c.cfg.Scheduler.Lease),
			taskqueue.WithMemoryMaxAttempts(c.cfg.Scheduler.MaxAttempts),
		)
	}
	return nil
}

func (c *Container) buildActivity() {
	if !c.cfg.Features.Activity {
		return
	}
	c.emitter = activity.NewEmitter(c.sinks...)
}

func (c *Container) buildServices() {
	if c.cfg.Features.Redirects {
		c.redirectService = redirects.NewService(c.redirectRepo,
			redirects.WithLogger(logging.RedirectsLogger(c.loggerProvider)),
			redirects.WithClock(c.clock),
			redirects.WithDefaultStatusCode(c.cfg.Redirects.DefaultStatusCode),
		)
	}

	pageOpts := []pages.Option{
		pages.WithLogger(logging.PagesLogger(c.loggerProvider)),
		pages.WithClock(c.clock),
		pages.WithTaskMaxAttempts(c.cfg.Scheduler.MaxAttempts),
	}
	if c.queue != nil {
		pageOpts = append(pageOpts, pages.WithTaskQueue(c.queue))
	}
	if c.emitter != nil {
		pageOpts = append(pageOpts, pages.WithActivityEmitter(c.emitter))
	}
	c.pageService = pages.NewService(c.pageRepo, c.localeRepo, pageOpts...)

	// path changes flow into the redirect registry through the activity
	// stream, so every mutation source gets redirect coverage
	if c.emitter != nil && c.redirectService != nil {
		c.emitter.Register(activity.SinkFunc(func(ctx context.Context, event activity.Event) error {
			if event.Verb != "path_change" {
				return nil
			}
			localeRaw, _ := event.Metadata["locale_id"].(string)
			localeID, err := uuid.Parse(localeRaw)
			if err != nil {
				return nil
			}
			pageID, err := uuid.Parse(event.ObjectID)
			if err != nil {
				return nil
			}
			actorID, _ := uuid.Parse(event.ActorID)
			oldPath, _ := event.Metadata["old_path"].(string)
			newPath, _ := event.Metadata["new_path"].(string)
			return c.redirectService.RecordPathChanges(ctx, localeID, []redirects.Change{{
				PageID:  pageID,
				OldPath: oldPath,
				NewPath: newPath,
			}}, actorID)
		}))
	}
}

func (c *Container) buildScheduler() {
	if c.queue == nil || !c.cfg.Scheduler.Enabled {
		return
	}
	recorder := jobs.NewMemoryAuditRecorder()
	c.audit = recorder
	c.worker = jobs.NewWorker(c.queue, c.pageService,
		jobs.WithWorkerLogger(logging.SchedulerLogger(c.loggerProvider)),
		jobs.WithWorkerClock(c.clock),
		jobs.WithWorkerAudit(recorder),
		jobs.WithWorkerBatchSize(c.cfg.Scheduler.BatchSize),
	)
	c.runner = jobs.NewRunner(c.worker, c.queue,
		jobs.WithRunnerInterval(c.cfg.Scheduler.Interval),
		jobs.WithRunnerLogger(logging.SchedulerLogger(c.loggerProvider)),
		jobs.WithRunnerClock(c.clock),
	)
}

// EnsureLocale registers a locale with a deterministic identifier, returning
// the stored record if it already exists.
func (c *Container) EnsureLocale(ctx context.Context, code, display string, isDefault bool) (*locales.Locale, error) {
	normalized := strings.ToLower(strings.TrimSpace(code))
	if existing, err := c.localeRepo.GetByCode(ctx, normalized); err == nil {
		return existing, nil
	} else if !errors.Is(err, locales.ErrLocaleNotFound) {
		return nil, err
	}
	return c.localeRepo.Create(ctx, &locales.Locale{
		ID:        identity.LocaleUUID(normalized),
		Code:      normalized,
		Display:   display,
		IsActive:  true,
		IsDefault: isDefault,
		CreatedAt: c.clock(),
	})
}

// Config returns the validated runtime configuration.
func (c *Container) Config() runtimeconfig.Config { return c.cfg }

// LoggerProvider returns the configured logger provider.
func (c *Container) LoggerProvider() interfaces.LoggerProvider { return c.loggerProvider }

// Locales returns the locale repository.
func (c *Container) Locales() locales.Repository { return c.localeRepo }

// PageRepository returns the page repository.
func (c *Container) PageRepository() pages.PageRepository { return c.pageRepo }

// PageService returns the page service.
func (c *Container) PageService() pages.Service { return c.pageService }

// RedirectService returns the redirect service, nil when disabled.
func (c *Container) RedirectService() redirects.Service { return c.redirectService }

// TaskQueue returns the task queue, nil when scheduling is disabled.
func (c *Container) TaskQueue() interfaces.TaskQueue { return c.queue }

// Worker returns the scheduler worker, nil when the worker is disabled.
func (c *Container) Worker() *jobs.Worker { return c.worker }

// Runner returns the scheduler runner, nil when the worker is disabled.
func (c *Container) Runner() *jobs.Runner { return c.runner }

// Emitter returns the activity emitter, nil when activity is disabled.
func (c *Container) Emitter() *activity.Emitter { return c.emitter }

// AuditTrail returns recorded task executions, empty when the worker is off.
func (c *Container) AuditTrail() []jobs.AuditEntry {
	if c.audit == nil {
		return nil
	}
	return c.audit.Entries()
}

type noopProvider struct{}

func (noopProvider) GetLogger(string) interfaces.Logger {
	return logging.NoOp()
}
