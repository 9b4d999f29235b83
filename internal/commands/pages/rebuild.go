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

const rebuildTreeMessageType = "sitetree.pages.rebuild"

// RebuildTreeCommand repairs paths and sibling positions for a locale, or for
// a single subtree when RootID is set.
type RebuildTreeCommand struct {
	LocaleID uuid.UUID  `json:"locale_id"`
	RootID   *uuid.UUID `json:"root_id,omitempty"`
	DryRun   bool       `json:"dry_run,omitempty"`
	ActorID  uuid.UUID  `json:"actor_id,omitempty"`
}

// Type implements command.Message.
func (RebuildTreeCommand) Type() string { return rebuildTreeMessageType }

// Validate ensures the message carries the required fields.
func (m RebuildTreeCommand) Validate() error {
	errs := validation.Errors{}
	if m.LocaleID == uuid.Nil {
		errs["locale_id"] = validation.NewError("sitetree.pages.rebuild.locale_id_required", "locale_id is required")
	}
	if m.RootID != nil && *m.RootID == uuid.Nil {
		errs["root_id"] = validation.NewError("sitetree.pages.rebuild.root_id_invalid", "root_id must be a valid identifier when provided")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// RebuildTreeHandler runs tree repairs via the page service and feeds
// resulting path changes into the redirect registry.
type RebuildTreeHandler struct {
	inner *commands.Handler[RebuildTreeCommand]
}

// NewRebuildTreeHandler constructs a handler wired to the provided services.
// The redirect service may be nil when redirects are disabled.
func NewRebuildTreeHandler(service pages.Service, redirectSvc redirects.Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[RebuildTreeCommand]) *RebuildTreeHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg RebuildTreeCommand) error {
		result, err := service.Rebuild(ctx, pages.RebuildRequest{
			LocaleID: msg.LocaleID,
			RootID:   msg.RootID,
			DryRun:   msg.DryRun,
			ActorID:  msg.ActorID,
		})
		if err != nil {
			return err
		}

		logging.WithFields(baseLogger, map[string]any{
			"locale_id":           msg.LocaleID,
			"paths_rewritten":     result.PathsRewritten,
			"positions_rewritten": result.PositionsRewritten,
			"dry_run":             msg.DryRun,
		}).Info("pages.command.rebuild.finished")

		if msg.DryRun || redirectSvc == nil || !gates.redirectsEnabled() || len(result.PathChanges) == 0 {
			return nil
		}
		changes := make([]redirects.Change, 0, len(result.PathChanges))
		for _, change := range result.PathChanges {
			changes = append(changes, redirects.Change{
				PageID:  change.PageID,
				OldPath: change.OldPath,
				NewPath: change.NewPath,
			})
		}
		return redirectSvc.RecordPathChanges(ctx, msg.LocaleID, changes, msg.ActorID)
	}

	handlerOpts := []commands.HandlerOption[RebuildTreeCommand]{
		commands.WithLogger[RebuildTreeCommand](baseLogger),
		commands.WithOperation[RebuildTreeCommand]("pages.rebuild"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &RebuildTreeHandler{
		inner: commands.NewHandler[RebuildTreeCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[RebuildTreeCommand].
func (h *RebuildTreeHandler) Execute(ctx context.Context, msg RebuildTreeCommand) error {
	return h.inner.Execute(ctx, msg)
}
