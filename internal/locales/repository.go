package locales

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrLocaleNotFound reports lookups for unknown locales.
var ErrLocaleNotFound = errors.New("locales: locale not found")

// NotFoundError carries the key used for a failed locale lookup.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	if e == nil || e.Key == "" {
		return ErrLocaleNotFound.Error()
	}
	return fmt.Sprintf("%s: %s", ErrLocaleNotFound.Error(), e.Key)
}

func (e *NotFoundError) Unwrap() error {
	return ErrLocaleNotFound
}

// Repository exposes locale lookups for services that scope work by locale.
type Repository interface {
	Create(ctx context.Context, locale *Locale) (*Locale, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Locale, error)
	GetByCode(ctx context.Context, code string) (*Locale, error)
	List(ctx context.Context) ([]*Locale, error)
	Default(ctx context.Context) (*Locale, error)
}
