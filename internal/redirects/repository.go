package redirects

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrRedirectNotFound = errors.New("redirects: redirect not found")
	ErrSelfRedirect     = errors.New("redirects: from and to paths are identical")
	ErrPathRequired     = errors.New("redirects: from and to paths are required")
	ErrLocaleRequired   = errors.New("redirects: locale is required")
	ErrStatusCode       = errors.New("redirects: status code must be 301, 302, 307 or 308")
)

// NotFoundError carries the path used for a failed redirect lookup.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	if e == nil || e.Path == "" {
		return ErrRedirectNotFound.Error()
	}
	return fmt.Sprintf("%s: %s", ErrRedirectNotFound.Error(), e.Path)
}

func (e *NotFoundError) Unwrap() error {
	return ErrRedirectNotFound
}

// Repository persists redirect rows. FromPath is unique per locale, so
// Upsert replaces the existing row for the same source path.
type Repository interface {
	Upsert(ctx context.Context, redirect *Redirect) (*Redirect, error)
	GetByFromPath(ctx context.Context, localeID uuid.UUID, fromPath string) (*Redirect, error)
	ListByLocale(ctx context.Context, localeID uuid.UUID) ([]*Redirect, error)
	ListByToPath(ctx context.Context, localeID uuid.UUID, toPath string) ([]*Redirect, error)
	Update(ctx context.Context, redirect *Redirect) (*Redirect, error)
}
