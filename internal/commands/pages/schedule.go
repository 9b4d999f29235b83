package pagescmd

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/goliatone/go-sitetree/internal/commands"
	"github.com/goliatone/go-sitetree/internal/logging"
	"github.com/goliatone/go-sitetree/internal/pages"
	"github.com/goliatone/go-sitetree/pkg/interfaces"
)

const (
	schedulePageMessageType       = "sitetree.pages.schedule"
	cancelSchedulePageMessageType = "sitetree.pages.cancel_schedule"
)

// SchedulePageCommand updates publish/unpublish windows for a page.
type SchedulePageCommand struct {
	PageID      uuid.UUID  `json:"page_id"`
	PublishAt   *time.Time `json:"publish_at,omitempty"`
	UnpublishAt *time.Time `json:"unpublish_at,omitempty"`
	RevertTo    string     `json:"revert_to,omitempty"`
	ScheduledBy uuid.UUID  `json:"scheduled_by,omitempty"`
}

// Type implements command.Message.
func (SchedulePageCommand) Type() string { return schedulePageMessageType }

// Validate ensures the message carries the required fields before reaching
// handlers.
func (m SchedulePageCommand) Validate() error {
	errs := validation.Errors{}
	if m.PageID == uuid.Nil {
		errs["page_id"] = validation.NewError("sitetree.pages.schedule.page_id_required", "page_id is required")
	}
	if m.PublishAt == nil && m.UnpublishAt == nil {
		errs["publish_at"] = validation.NewError("sitetree.pages.schedule.window_required", "publish_at or unpublish_at is required")
	}
	if m.PublishAt != nil && m.PublishAt.IsZero() {
		errs["publish_at"] = validation.NewError("sitetree.pages.schedule.publish_at_invalid", "publish_at must be a valid timestamp when provided")
	}
	if m.UnpublishAt != nil && m.UnpublishAt.IsZero() {
		errs["unpublish_at"] = validation.NewError("sitetree.pages.schedule.unpublish_at_invalid", "unpublish_at must be a valid timestamp when provided")
	}
	if m.PublishAt != nil && m.UnpublishAt != nil && !m.PublishAt.Before(*m.UnpublishAt) {
		errs["unpublish_at"] = validation.NewError("sitetree.pages.schedule.window_invalid", "unpublish_at must be after publish_at")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SchedulePageHandler coordinates scheduling changes via the page service.
type SchedulePageHandler struct {
	inner *commands.Handler[SchedulePageCommand]
}

// NewSchedulePageHandler constructs a handler wired to the provided page
// service.
func NewSchedulePageHandler(service pages.Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[SchedulePageCommand]) *SchedulePageHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg SchedulePageCommand) error {
		if !gates.schedulingEnabled() {
			return pages.ErrSchedulingDisabled
		}

		fields := map[string]any{
			"page_id": msg.PageID,
		}
		if msg.PublishAt != nil {
			fields["publish_at"] = msg.PublishAt
		}
		if msg.UnpublishAt != nil {
			fields["unpublish_at"] = msg.UnpublishAt
		}
		operationLogger := logging.WithFields(baseLogger, fields)
		operationLogger.Debug("pages.command.schedule.dispatch")

		_, err := service.Schedule(ctx, pages.SchedulePageRequest{
			PageID:      msg.PageID,
			PublishAt:   msg.PublishAt,
			UnpublishAt: msg.UnpublishAt,
			RevertTo:    msg.RevertTo,
			ActorID:     msg.ScheduledBy,
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[SchedulePageCommand]{
		commands.WithLogger[SchedulePageCommand](baseLogger),
		commands.WithOperation[SchedulePageCommand]("pages.schedule"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &SchedulePageHandler{
		inner: commands.NewHandler[SchedulePageCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[SchedulePageCommand].
func (h *SchedulePageHandler) Execute(ctx context.Context, msg SchedulePageCommand) error {
	return h.inner.Execute(ctx, msg)
}

// CancelSchedulePageCommand drops pending publish/unpublish tasks for a page.
type CancelSchedulePageCommand struct {
	PageID  uuid.UUID `json:"page_id"`
	ActorID uuid.UUID `json:"actor_id,omitempty"`
}

// Type implements command.Message.
func (CancelSchedulePageCommand) Type() string { return cancelSchedulePageMessageType }

// Validate ensures the message carries the required fields.
func (m CancelSchedulePageCommand) Validate() error {
	errs := validation.Errors{}
	if m.PageID == uuid.Nil {
		errs["page_id"] = validation.NewError("sitetree.pages.cancel_schedule.page_id_required", "page_id is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// CancelSchedulePageHandler cancels a page's schedule via the page service.
type CancelSchedulePageHandler struct {
	inner *commands.Handler[CancelSchedulePageCommand]
}

// NewCancelSchedulePageHandler constructs a handler wired to the page service.
func NewCancelSchedulePageHandler(service pages.Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[CancelSchedulePageCommand]) *CancelSchedulePageHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg CancelSchedulePageCommand) error {
		if !gates.schedulingEnabled() {
			return pages.ErrSchedulingDisabled
		}
		_, err := service.CancelSchedule(ctx, pages.CancelScheduleRequest{
			PageID:  msg.PageID,
			ActorID: msg.ActorID,
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[CancelSchedulePageCommand]{
		commands.WithLogger[CancelSchedulePageCommand](baseLogger),
		commands.WithOperation[CancelSchedulePageCommand]("pages.cancel_schedule"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &CancelSchedulePageHandler{
		inner: commands.NewHandler[CancelSchedulePageCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[CancelSchedulePageCommand].
func (h *CancelSchedulePageHandler) Execute(ctx context.Context, msg CancelSchedulePageCommand) error {
	return h.inner.Execute(ctx, msg)
}
