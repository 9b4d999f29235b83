package pages

import (
	"context"

	"github.com/google/uuid"
)

// PageRepository persists the locale-scoped page tree. BulkUpdateHierarchy
// and DeleteMany are all-or-nothing so a failed move or cascade never leaves
// the tree half rewritten.
//
// LockHierarchy runs fn with exclusive write access to one locale's tree.
// Structural rewrites read a snapshot, mutate it, and flush; without the
// lock two concurrent rewrites would each compute from a snapshot the other
// is about to invalidate and silently clobber committed rows.
type PageRepository interface {
	Create(ctx context.Context, page *Page) (*Page, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Page, error)
	GetByPath(ctx context.Context, localeID uuid.UUID, path string) (*Page, error)
	ListByLocale(ctx context.Context, localeID uuid.UUID) ([]*Page, error)
	ListChildren(ctx context.Context, localeID uuid.UUID, parentID *uuid.UUID) ([]*Page, error)
	Update(ctx context.Context, page *Page) (*Page, error)
	BulkUpdateHierarchy(ctx context.Context, pages []*Page) error
	DeleteMany(ctx context.Context, ids []uuid.UUID) error
	LockHierarchy(ctx context.Context, localeID uuid.UUID, fn func(ctx context.Context) error) error
}
