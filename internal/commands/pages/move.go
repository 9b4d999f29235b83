package pagescmd

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/goliatone/go-sitetree/internal/commands"
	"github.com/goliatone/go-sitetree/internal/logging"
	"github.com/goliatone/go-sitetree/internal/pages"
	"github.com/goliatone/go-sitetree/internal/redirects"
	"github.com/goliatone/go-sitetree/pkg/interfaces"
)

const movePageMessageType = "sitetree.pages.move"

// MovePageCommand reparents a page and cascades path rewrites to its subtree.
type MovePageCommand struct {
	PageID      uuid.UUID  `json:"page_id"`
	NewParentID *uuid.UUID `json:"new_parent_id,omitempty"`
	Position    *int       `json:"position,omitempty"`
	ActorID     uuid.UUID  `json:"actor_id,omitempty"`
}

// Type implements command.Message.
func (MovePageCommand) Type() string { return movePageMessageType }

// Validate ensures the message carries the required fields before reaching
// handlers.
func (m MovePageCommand) Validate() error {
	errs := validation.Errors{}
	if m.PageID == uuid.Nil {
		errs["page_id"] = validation.NewError("sitetree.pages.move.page_id_required", "page_id is required")
	}
	if m.NewParentID != nil && *m.NewParentID == uuid.Nil {
		errs["new_parent_id"] = validation.NewError("sitetree.pages.move.new_parent_id_invalid", "new_parent_id must be a valid identifier when provided")
	}
	if m.Position != nil && *m.Position < 0 {
		errs["position"] = validation.NewError("sitetree.pages.move.position_invalid", "position must be zero or positive")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// MovePageHandler coordinates moves via the page service and feeds resulting
// path changes into the redirect registry.
type MovePageHandler struct {
	inner *commands.Handler[MovePageCommand]
}

// NewMovePageHandler constructs a handler wired to the provided services.
// The redirect service may be nil when redirects are disabled.
func NewMovePageHandler(service pages.Service, redirectSvc redirects.Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[MovePageCommand]) *MovePageHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg MovePageCommand) error {
		operationLogger := logging.WithFields(baseLogger, map[string]any{
			"page_id": msg.PageID,
		})
		operationLogger.Debug("pages.command.move.dispatch")

		result, err := service.Move(ctx, pages.MovePageRequest{
			PageID:      msg.PageID,
			NewParentID: msg.NewParentID,
			Position:    msg.Position,
			ActorID:     msg.ActorID,
		})
		if err != nil {
			return err
		}

		if redirectSvc != nil && gates.redirectsEnabled() && len(result.PathChanges) > 0 {
			changes := make([]redirects.Change, 0, len(result.PathChanges))
			for _, change := range result.PathChanges {
				changes = append(changes, redirects.Change{
					PageID:  change.PageID,
					OldPath: change.OldPath,
					NewPath: change.NewPath,
				})
			}
			if err := redirectSvc.RecordPathChanges(ctx, result.Page.LocaleID, changes, msg.ActorID); err != nil {
				return err
			}
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[MovePageCommand]{
		commands.WithLogger[MovePageCommand](baseLogger),
		commands.WithOperation[MovePageCommand]("pages.move"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &MovePageHandler{
		inner: commands.NewHandler[MovePageCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[MovePageCommand].
func (h *MovePageHandler) Execute(ctx context.Context, msg MovePageCommand) error {
	return h.inner.Execute(ctx, msg)
}
