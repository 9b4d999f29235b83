package locales

import (
	"context"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NewLocaleRepository builds the generic bun repository for locales.
func NewLocaleRepository(db *bun.DB) repository.Repository[*Locale] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Locale]{
		NewRecord: func() *Locale { return &Locale{} },
		GetID: func(l *Locale) uuid.UUID {
			return l.ID
		},
		SetID: func(l *Locale, id uuid.UUID) {
			l.ID = id
		},
		GetIdentifier: func() string {
			return "code"
		},
		GetIdentifierValue: func(l *Locale) string {
			return l.Code
		},
	})
}

// BunRepository persists locales through bun.
type BunRepository struct {
	repo repository.Repository[*Locale]
}

// NewBunRepository constructs a locale repository backed by bun.
func NewBunRepository(db *bun.DB) *BunRepository {
	return &BunRepository{repo: NewLocaleRepository(db)}
}

func (r *BunRepository) Create(ctx context.Context, locale *Locale) (*Locale, error) {
	created, err := r.repo.Create(ctx, locale)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *BunRepository) GetByID(ctx context.Context, id uuid.UUID) (*Locale, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, id.String())
	}
	return record, nil
}

func (r *BunRepository) GetByCode(ctx context.Context, code string) (*Locale, error) {
	normalized := normalizeCode(code)
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("LOWER(?TableAlias.code) = ?", normalized)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapRepositoryError(err, code)
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Key: code}
	}
	return records[0], nil
}

func (r *BunRepository) List(ctx context.Context) ([]*Locale, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.code ASC")
		}),
	)
	return records, err
}

func (r *BunRepository) Default(ctx context.Context) (*Locale, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.is_default = ?", true)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "default")
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Key: "default"}
	}
	return records[0], nil
}

func mapRepositoryError(err error, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Key: strings.TrimSpace(key)}
	}
	return fmt.Errorf("locale repository error: %w", err)
}

var _ Repository = (*BunRepository)(nil)
