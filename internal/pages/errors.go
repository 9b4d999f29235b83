package pages

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-sitetree/internal/domain"
)

var (
	ErrLocaleRequired           = errors.New("pages: locale is required")
	ErrUnknownLocale            = errors.New("pages: unknown locale")
	ErrSlugRequired             = errors.New("pages: slug is required")
	ErrSlugInvalid              = errors.New("pages: slug contains invalid characters")
	ErrPathConflict             = errors.New("pages: path already exists in locale")
	ErrPositionInvalid          = errors.New("pages: position must be zero or positive")
	ErrPageNotFound             = errors.New("pages: page not found")
	ErrParentNotFound           = errors.New("pages: parent page not found")
	ErrParentLocaleMismatch     = errors.New("pages: parent belongs to a different locale")
	ErrParentCycle              = errors.New("pages: move would create a hierarchy cycle")
	ErrPageHasChildren          = errors.New("pages: page has children and cascade is disabled")
	ErrHomepageExists           = errors.New("pages: locale already has a homepage")
	ErrHomepageParent           = errors.New("pages: homepage cannot have a parent")
	ErrHomepageMove             = errors.New("pages: homepage cannot be moved or renamed")
	ErrTransitionInvalid        = errors.New("pages: illegal status transition")
	ErrPublishWithoutLocale     = errors.New("pages: cannot publish without a locale")
	ErrSchedulingDisabled       = errors.New("pages: scheduling feature disabled")
	ErrScheduleWindowInvalid    = errors.New("pages: publish_at must be before unpublish_at")
	ErrScheduleTimestampInvalid = errors.New("pages: schedule timestamp is invalid")
	ErrRebuildScopeInvalid      = errors.New("pages: rebuild requires a locale or root scope")
)

// PageNotFoundError captures failed page lookups.
type PageNotFoundError struct {
	Key string
}

func (e *PageNotFoundError) Error() string {
	if e == nil || strings.TrimSpace(e.Key) == "" {
		return ErrPageNotFound.Error()
	}
	return fmt.Sprintf("%s: %s", ErrPageNotFound.Error(), e.Key)
}

func (e *PageNotFoundError) Unwrap() error {
	return ErrPageNotFound
}

// PathConflictError reports a materialized path collision within a locale.
type PathConflictError struct {
	LocaleID uuid.UUID
	Path     string
	PageID   uuid.UUID
}

func (e *PathConflictError) Error() string {
	if e == nil {
		return ErrPathConflict.Error()
	}
	path := strings.TrimSpace(e.Path)
	if path != "" {
		return fmt.Sprintf("%s: path=%s", ErrPathConflict.Error(), path)
	}
	return ErrPathConflict.Error()
}

func (e *PathConflictError) Unwrap() error {
	return ErrPathConflict
}

// InvalidMoveError reports moves into the page itself or one of its descendants.
type InvalidMoveError struct {
	PageID      uuid.UUID
	NewParentID uuid.UUID
}

func (e *InvalidMoveError) Error() string {
	if e == nil {
		return ErrParentCycle.Error()
	}
	return fmt.Sprintf("%s: page=%s parent=%s", ErrParentCycle.Error(), e.PageID, e.NewParentID)
}

func (e *InvalidMoveError) Unwrap() error {
	return ErrParentCycle
}

// TransitionError reports illegal publication lifecycle edges.
type TransitionError struct {
	PageID uuid.UUID
	From   domain.Status
	To     domain.Status
}

func (e *TransitionError) Error() string {
	if e == nil {
		return ErrTransitionInvalid.Error()
	}
	return fmt.Sprintf("%s: %s -> %s", ErrTransitionInvalid.Error(), e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrTransitionInvalid
}
