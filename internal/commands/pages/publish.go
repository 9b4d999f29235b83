package pagescmd

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/goliatone/go-sitetree/internal/commands"
	"github.com/goliatone/go-sitetree/internal/domain"
	"github.com/goliatone/go-sitetree/internal/logging"
	"github.com/goliatone/go-sitetree/internal/pages"
	"github.com/goliatone/go-sitetree/pkg/interfaces"
)

const (
	publishPageMessageType   = "sitetree.pages.publish"
	unpublishPageMessageType = "sitetree.pages.unpublish"
)

// PublishPageCommand publishes a page immediately.
type PublishPageCommand struct {
	PageID  uuid.UUID `json:"page_id"`
	ActorID uuid.UUID `json:"actor_id,omitempty"`
}

// Type implements command.Message.
func (PublishPageCommand) Type() string { return publishPageMessageType }

// Validate ensures the message carries the required fields.
func (m PublishPageCommand) Validate() error {
	errs := validation.Errors{}
	if m.PageID == uuid.Nil {
		errs["page_id"] = validation.NewError("sitetree.pages.publish.page_id_required", "page_id is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// PublishPageHandler publishes pages via the page service.
type PublishPageHandler struct {
	inner *commands.Handler[PublishPageCommand]
}

// NewPublishPageHandler constructs a handler wired to the page service.
func NewPublishPageHandler(service pages.Service, logger interfaces.Logger, opts ...commands.HandlerOption[PublishPageCommand]) *PublishPageHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg PublishPageCommand) error {
		_, err := service.Publish(ctx, pages.PublishPageRequest{
			PageID:  msg.PageID,
			ActorID: msg.ActorID,
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[PublishPageCommand]{
		commands.WithLogger[PublishPageCommand](baseLogger),
		commands.WithOperation[PublishPageCommand]("pages.publish"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &PublishPageHandler{
		inner: commands.NewHandler[PublishPageCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[PublishPageCommand].
func (h *PublishPageHandler) Execute(ctx context.Context, msg PublishPageCommand) error {
	return h.inner.Execute(ctx, msg)
}

// UnpublishPageCommand takes a page offline immediately.
type UnpublishPageCommand struct {
	PageID   uuid.UUID `json:"page_id"`
	RevertTo string    `json:"revert_to,omitempty"`
	ActorID  uuid.UUID `json:"actor_id,omitempty"`
}

// Type implements command.Message.
func (UnpublishPageCommand) Type() string { return unpublishPageMessageType }

// Validate ensures the message carries the required fields.
func (m UnpublishPageCommand) Validate() error {
	errs := validation.Errors{}
	if m.PageID == uuid.Nil {
		errs["page_id"] = validation.NewError("sitetree.pages.unpublish.page_id_required", "page_id is required")
	}
	if trimmed := strings.TrimSpace(m.RevertTo); trimmed != "" {
		status := domain.Status(trimmed)
		if status != domain.StatusDraft && status != domain.StatusArchived {
			errs["revert_to"] = validation.NewError("sitetree.pages.unpublish.revert_to_invalid", "revert_to must be draft or archived")
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// UnpublishPageHandler unpublishes pages via the page service.
type UnpublishPageHandler struct {
	inner *commands.Handler[UnpublishPageCommand]
}

// NewUnpublishPageHandler constructs a handler wired to the page service.
func NewUnpublishPageHandler(service pages.Service, logger interfaces.Logger, opts ...commands.HandlerOption[UnpublishPageCommand]) *UnpublishPageHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg UnpublishPageCommand) error {
		_, err := service.Unpublish(ctx, pages.UnpublishPageRequest{
			PageID:   msg.PageID,
			RevertTo: msg.RevertTo,
			ActorID:  msg.ActorID,
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[UnpublishPageCommand]{
		commands.WithLogger[UnpublishPageCommand](baseLogger),
		commands.WithOperation[UnpublishPageCommand]("pages.unpublish"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &UnpublishPageHandler{
		inner: commands.NewHandler[UnpublishPageCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[UnpublishPageCommand].
func (h *UnpublishPageHandler) Execute(ctx context.Context, msg UnpublishPageCommand) error {
	return h.inner.Execute(ctx, msg)
}
