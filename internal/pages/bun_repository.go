package pages

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// NewPageRepository builds the generic bun repository for pages.
func NewPageRepository(db *bun.DB) repository.Repository[*Page] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Page]{
		NewRecord: func() *Page { return &Page{} },
		GetID: func(p *Page) uuid.UUID {
			return p.ID
		},
		SetID: func(p *Page, id uuid.UUID) {
			p.ID = id
		},
		GetIdentifier: func() string {
			return "path"
		},
		GetIdentifierValue: func(p *Page) string {
			return p.Path
		},
	})
}

// BunRepository persists pages through bun. Tree rewrites run inside a single
// transaction with rows updated in ascending id order, so concurrent writers
// take row locks in the same sequence.
type BunRepository struct {
	db   *bun.DB
	repo repository.Repository[*Page]
}

// NewBunRepository creates a page repository without caching.
func NewBunRepository(db *bun.DB) *BunRepository {
	return NewBunRepositoryWithCache(db, nil, nil)
}

// NewBunRepositoryWithCache creates a page repository with read caching.
func NewBunRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunRepository {
	base := NewPageRepository(db)
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
	}
	return &BunRepository{db: db, repo: base}
}

// hierarchyTxKey carries the LockHierarchy transaction so nested repository
// calls read and write through it instead of the pool.
type hierarchyTxKey struct{}

func withHierarchyTx(ctx context.Context, tx bun.IDB) context.Context {
	return context.WithValue(ctx, hierarchyTxKey{}, tx)
}

func hierarchyTx(ctx context.Context) (bun.IDB, bool) {
	tx, ok := ctx.Value(hierarchyTxKey{}).(bun.IDB)
	return tx, ok
}

func (r *BunRepository) idb(ctx context.Context) bun.IDB {
	if tx, ok := hierarchyTx(ctx); ok {
		return tx
	}
	return r.db
}

// LockHierarchy opens a transaction spanning fn and locks every row of the
// locale's tree up front. On postgres the rows are selected FOR UPDATE in
// ascending id order so concurrent rewrites queue instead of interleaving;
// sqlite serializes writers through its single-writer lock.
func (r *BunRepository) LockHierarchy(ctx context.Context, localeID uuid.UUID, fn func(ctx context.Context) error) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		query := tx.NewSelect().
			Model((*Page)(nil)).
			Column("p.id").
			Where("p.locale_id = ?", localeID).
			Order("p.id ASC")
		if r.db.Dialect().Name() == dialect.PG {
			query = query.For("UPDATE")
		}
		var ids []uuid.UUID
		if err := query.Scan(ctx, &ids); err != nil {
			return err
		}
		return fn(withHierarchyTx(ctx, tx))
	})
}

func (r *BunRepository) Create(ctx context.Context, page *Page) (*Page, error) {
	record, err := r.repo.CreateTx(ctx, r.idb(ctx), page)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *BunRepository) GetByID(ctx context.Context, id uuid.UUID) (*Page, error) {
	record, err := r.repo.GetByIDTx(ctx, r.idb(ctx), id.String())
	if err != nil {
		return nil, mapRepositoryError(err, id.String())
	}
	return record, nil
}

func (r *BunRepository) GetByPath(ctx context.Context, localeID uuid.UUID, path string) (*Page, error) {
	normalized := NormalizePath(path)
	records, _, err := r.repo.ListTx(ctx, r.idb(ctx),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("?TableAlias.locale_id = ?", localeID).
				Where("?TableAlias.path = ?", normalized)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapRepositoryError(err, normalized)
	}
	if len(records) == 0 {
		return nil, &PageNotFoundError{Key: normalized}
	}
	return records[0], nil
}

func (r *BunRepository) ListByLocale(ctx context.Context, localeID uuid.UUID) ([]*Page, error) {
	records, _, err := r.repo.ListTx(ctx, r.idb(ctx),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("?TableAlias.locale_id = ?", localeID).
				OrderExpr("?TableAlias.position ASC, ?TableAlias.id ASC")
		}),
	)
	return records, err
}

func (r *BunRepository) ListChildren(ctx context.Context, localeID uuid.UUID, parentID *uuid.UUID) ([]*Page, error) {
	records, _, err := r.repo.ListTx(ctx, r.idb(ctx),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			q = q.Where("?TableAlias.locale_id = ?", localeID)
			if parentID == nil {
				q = q.Where("?TableAlias.parent_id IS NULL")
			} else {
				q = q.Where("?TableAlias.parent_id = ?", *parentID)
			}
			return q.OrderExpr("?TableAlias.position ASC, ?TableAlias.id ASC")
		}),
	)
	return records, err
}

func (r *BunRepository) Update(ctx context.Context, page *Page) (*Page, error) {
	record, err := r.repo.UpdateTx(ctx, r.idb(ctx), page)
	if err != nil {
		return nil, mapRepositoryError(err, page.ID.String())
	}
	return record, nil
}

// BulkUpdateHierarchy writes a batch of tree rows in one transaction. The
// caller hands rows in ascending id order. Inside LockHierarchy the writes
// join the surrounding transaction.
func (r *BunRepository) BulkUpdateHierarchy(ctx context.Context, pages []*Page) error {
	if len(pages) == 0 {
		return nil
	}
	if tx, ok := hierarchyTx(ctx); ok {
		return bulkUpdatePages(ctx, tx, pages)
	}
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return bulkUpdatePages(ctx, tx, pages)
	})
}

func bulkUpdatePages(ctx context.Context, tx bun.IDB, pages []*Page) error {
	for _, page := range pages {
		result, err := tx.NewUpdate().Model(page).WherePK().Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return &PageNotFoundError{Key: page.ID.String()}
		}
	}
	return nil
}

func (r *BunRepository) DeleteMany(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if tx, ok := hierarchyTx(ctx); ok {
		return deletePages(ctx, tx, ids)
	}
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return deletePages(ctx, tx, ids)
	})
}

func deletePages(ctx context.Context, tx bun.IDB, ids []uuid.UUID) error {
	for _, id := range ids {
		result, err := tx.NewDelete().Model((*Page)(nil)).Where("p.id = ?", id).Exec(ctx)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return &PageNotFoundError{Key: id.String()}
		}
	}
	return nil
}

func mapRepositoryError(err error, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &PageNotFoundError{Key: strings.TrimSpace(key)}
	}
	return fmt.Errorf("page repository error: %w", err)
}

var _ PageRepository = (*BunRepository)(nil)
