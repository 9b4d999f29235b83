package redirects

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-sitetree/internal/identity"
	"github.com/goliatone/go-sitetree/internal/logging"
	"github.com/goliatone/go-sitetree/internal/pages"
	"github.com/goliatone/go-sitetree/pkg/interfaces"
)

// DefaultStatusCode is used when an upsert does not pick one.
const DefaultStatusCode = 301

// Service maintains the redirect registry for retired page paths.
type Service interface {
	Lookup(ctx context.Context, localeID uuid.UUID, fromPath string) (*Redirect, error)
	Upsert(ctx context.Context, req UpsertRequest) (*Redirect, error)
	Deactivate(ctx context.Context, localeID uuid.UUID, fromPath string, actorID uuid.UUID) error
	List(ctx context.Context, localeID uuid.UUID) ([]*Redirect, error)
	RecordPathChanges(ctx context.Context, localeID uuid.UUID, changes []Change, actorID uuid.UUID) error
}

// UpsertRequest registers or replaces a redirect for a source path.
type UpsertRequest struct {
	LocaleID   uuid.UUID
	FromPath   string
	ToPath     string
	StatusCode int
	ActorID    uuid.UUID
}

type service struct {
	repo       Repository
	logger     interfaces.Logger
	clock      func() time.Time
	statusCode int
}

// Option customizes the redirect service.
type Option func(*service)

// WithLogger attaches the module logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the service clock.
func WithClock(clock func() time.Time) Option {
	return func(s *service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithDefaultStatusCode sets the status code applied when requests omit one.
func WithDefaultStatusCode(code int) Option {
	return func(s *service) {
		if validStatusCode(code) {
			s.statusCode = code
		}
	}
}

// NewService constructs the redirect service.
func NewService(repo Repository, opts ...Option) Service {
	svc := &service{
		repo:       repo,
		logger:     logging.NoOp(),
		clock:      time.Now,
		statusCode: DefaultStatusCode,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *service) Lookup(ctx context.Context, localeID uuid.UUID, fromPath string) (*Redirect, error) {
	if localeID == uuid.Nil {
		return nil, ErrLocaleRequired
	}
	normalized := pages.NormalizePath(fromPath)
	record, err := s.repo.GetByFromPath(ctx, localeID, normalized)
	if err != nil {
		return nil, err
	}
	if !record.IsActive {
		return nil, &NotFoundError{Path: normalized}
	}
	return record, nil
}

func (s *service) Upsert(ctx context.Context, req UpsertRequest) (*Redirect, error) {
	redirect, err := s.buildRedirect(req)
	if err != nil {
		return nil, err
	}

	stored, err := s.repo.Upsert(ctx, redirect)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("redirect upserted",
		"locale_id", stored.LocaleID.String(),
		"from_path", stored.FromPath,
		"to_path", stored.ToPath,
	)
	return stored, nil
}

func (s *service) Deactivate(ctx context.Context, localeID uuid.UUID, fromPath string, actorID uuid.UUID) error {
	if localeID == uuid.Nil {
		return ErrLocaleRequired
	}
	normalized := pages.NormalizePath(fromPath)
	record, err := s.repo.GetByFromPath(ctx, localeID, normalized)
	if err != nil {
		return err
	}
	if !record.IsActive {
		return nil
	}
	record.IsActive = false
	record.UpdatedAt = s.clock()
	_, err = s.repo.Update(ctx, record)
	if err == nil {
		s.logger.Debug("redirect deactivated",
			"locale_id", localeID.String(),
			"from_path", normalized,
			"actor_id", actorID.String(),
		)
	}
	return err
}

func (s *service) List(ctx context.Context, localeID uuid.UUID) ([]*Redirect, error) {
	if localeID == uuid.Nil {
		return nil, ErrLocaleRequired
	}
	return s.repo.ListByLocale(ctx, localeID)
}

// RecordPathChanges absorbs a batch of tree rewrites: each old path starts
// redirecting to the new one, existing redirects aimed at the old path are
// retargeted so chains never form, and a redirect squatting on the new path
// is switched off because a page lives there again.
func (s *service) RecordPathChanges(ctx context.Context, localeID uuid.UUID, changes []Change, actorID uuid.UUID) error {
	if localeID == uuid.Nil {
		return ErrLocaleRequired
	}

	now := s.clock()
	for _, change := range changes {
		oldPath := pages.NormalizePath(change.OldPath)
		newPath := pages.NormalizePath(change.NewPath)
		if oldPath == newPath {
			continue
		}

		if _, err := s.Upsert(ctx, UpsertRequest{
			LocaleID: localeID,
			FromPath: oldPath,
			ToPath:   newPath,
			ActorID:  actorID,
		}); err != nil {
			return err
		}

		inbound, err := s.repo.ListByToPath(ctx, localeID, oldPath)
		if err != nil {
			return err
		}
		for _, redirect := range inbound {
			if redirect.FromPath == oldPath {
				continue
			}
			if redirect.FromPath == newPath {
				redirect.IsActive = false
			} else {
				redirect.ToPath = newPath
			}
			redirect.UpdatedAt = now
			if _, err := s.repo.Update(ctx, redirect); err != nil {
				return err
			}
		}

		squatter, err := s.repo.GetByFromPath(ctx, localeID, newPath)
		if err != nil {
			if errors.Is(err, ErrRedirectNotFound) {
				continue
			}
			return err
		}
		if squatter.IsActive {
			squatter.IsActive = false
			squatter.UpdatedAt = now
			if _, err := s.repo.Update(ctx, squatter); err != nil {
				return err
			}
		}
	}
	return nil
}

// validStatusCode accepts the redirect codes a registry may serve: permanent
// and temporary, with and without method preservation.
func validStatusCode(code int) bool {
	switch code {
	case 301, 302, 307, 308:
		return true
	default:
		return false
	}
}

func (s *service) buildRedirect(req UpsertRequest) (*Redirect, error) {
	if req.LocaleID == uuid.Nil {
		return nil, ErrLocaleRequired
	}
	fromPath := pages.NormalizePath(req.FromPath)
	toPath := pages.NormalizePath(req.ToPath)
	if fromPath == pages.RootPath && req.FromPath == "" {
		return nil, ErrPathRequired
	}
	if toPath == pages.RootPath && req.ToPath == "" {
		return nil, ErrPathRequired
	}
	if fromPath == toPath {
		return nil, ErrSelfRedirect
	}

	statusCode := req.StatusCode
	if statusCode == 0 {
		statusCode = s.statusCode
	}
	if !validStatusCode(statusCode) {
		return nil, ErrStatusCode
	}

	now := s.clock()
	return &Redirect{
		ID:         identity.RedirectUUID(req.LocaleID, fromPath),
		LocaleID:   req.LocaleID,
		FromPath:   fromPath,
		ToPath:     toPath,
		StatusCode: statusCode,
		IsActive:   true,
		CreatedBy:  req.ActorID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}
