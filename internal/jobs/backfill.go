package jobs

import (
	"context"
	"fmt"

	"github.com/goliatone/go-sitetree/internal/domain"
	"github.com/goliatone/go-sitetree/internal/locales"
	"github.com/goliatone/go-sitetree/internal/pages"
	"github.com/goliatone/go-sitetree/internal/taskqueue"
	"github.com/goliatone/go-sitetree/pkg/interfaces"
)

// BackfillScheduledPages enqueues tasks for pages whose schedule columns were
// written before the queue existed. Key-based dedupe makes repeated runs
// harmless.
func BackfillScheduledPages(ctx context.Context, localeRepo locales.Repository, pageRepo pages.PageRepository, queue interfaces.TaskQueue, maxAttempts int) (int, error) {
	records, err := localeRepo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list locales: %w", err)
	}

	enqueued := 0
	for _, locale := range records {
		tree, err := pageRepo.ListByLocale(ctx, locale.ID)
		if err != nil {
			return enqueued, fmt.Errorf("list pages for locale %s: %w", locale.Code, err)
		}
		for _, page := range tree {
			status := domain.NormalizeStatus(page.Status)

			if page.PublishAt != nil && status == domain.StatusScheduled {
				if _, err := queue.Enqueue(ctx, interfaces.TaskSpec{
					Key:         taskqueue.PagePublishTaskKey(page.ID),
					Type:        taskqueue.TaskTypePagePublish,
					TargetType:  taskqueue.TargetTypePage,
					TargetID:    page.ID.String(),
					RunAt:       *page.PublishAt,
					Payload:     map[string]any{"page_id": page.ID.String()},
					MaxAttempts: maxAttempts,
				}); err != nil {
					return enqueued, fmt.Errorf("enqueue publish for page %s: %w", page.ID, err)
				}
				enqueued++
			}

			if page.UnpublishAt != nil && (status == domain.StatusScheduled || status == domain.StatusPublished) {
				if _, err := queue.Enqueue(ctx, interfaces.TaskSpec{
					Key:         taskqueue.PageUnpublishTaskKey(page.ID),
					Type:        taskqueue.TaskTypePageUnpublish,
					TargetType:  taskqueue.TargetTypePage,
					TargetID:    page.ID.String(),
					RunAt:       *page.UnpublishAt,
					Payload:     map[string]any{"page_id": page.ID.String()},
					MaxAttempts: maxAttempts,
				}); err != nil {
					return enqueued, fmt.Errorf("enqueue unpublish for page %s: %w", page.ID, err)
				}
				enqueued++
			}
		}
	}
	return enqueued, nil
}
