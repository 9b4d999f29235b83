package redirects

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NewRedirectRepository builds the generic bun repository for redirects.
func NewRedirectRepository(db *bun.DB) repository.Repository[*Redirect] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Redirect]{
		NewRecord: func() *Redirect { return &Redirect{} },
		GetID: func(r *Redirect) uuid.UUID {
			return r.ID
		},
		SetID: func(r *Redirect, id uuid.UUID) {
			r.ID = id
		},
		GetIdentifier: func() string {
			return "from_path"
		},
		GetIdentifierValue: func(r *Redirect) string {
			return r.FromPath
		},
	})
}

// BunRepository persists redirects through bun with optional read caching.
// Lookup sits on the request hot path, so cache wins are real here.
type BunRepository struct {
	repo repository.Repository[*Redirect]
}

// NewBunRepository creates a redirect repository without caching.
func NewBunRepository(db *bun.DB) *BunRepository {
	return NewBunRepositoryWithCache(db, nil, nil)
}

// NewBunRepositoryWithCache creates a redirect repository with caching.
func NewBunRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunRepository {
	base := NewRedirectRepository(db)
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
	}
	return &BunRepository{repo: base}
}

func (r *BunRepository) Upsert(ctx context.Context, redirect *Redirect) (*Redirect, error) {
	existing, err := r.GetByFromPath(ctx, redirect.LocaleID, redirect.FromPath)
	if err == nil {
		redirect.ID = existing.ID
		return r.repo.Update(ctx, redirect)
	}
	if !errors.Is(err, ErrRedirectNotFound) {
		return nil, err
	}
	return r.repo.Create(ctx, redirect)
}

func (r *BunRepository) GetByFromPath(ctx context.Context, localeID uuid.UUID, fromPath string) (*Redirect, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("?TableAlias.locale_id = ?", localeID).
				Where("?TableAlias.from_path = ?", fromPath)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapRepositoryError(err, fromPath)
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Path: fromPath}
	}
	return records[0], nil
}

func (r *BunRepository) ListByLocale(ctx context.Context, localeID uuid.UUID) ([]*Redirect, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("?TableAlias.locale_id = ?", localeID).
				OrderExpr("?TableAlias.from_path ASC")
		}),
	)
	return records, err
}

func (r *BunRepository) ListByToPath(ctx context.Context, localeID uuid.UUID, toPath string) ([]*Redirect, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("?TableAlias.locale_id = ?", localeID).
				Where("?TableAlias.to_path = ?", toPath)
		}),
	)
	return records, err
}

func (r *BunRepository) Update(ctx context.Context, redirect *Redirect) (*Redirect, error) {
	record, err := r.repo.Update(ctx, redirect)
	if err != nil {
		return nil, mapRepositoryError(err, redirect.FromPath)
	}
	return record, nil
}

func mapRepositoryError(err error, path string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Path: strings.TrimSpace(path)}
	}
	return fmt.Errorf("redirect repository error: %w", err)
}

var _ Repository = (*BunRepository)(nil)
