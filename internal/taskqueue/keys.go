package taskqueue

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	// TaskTypePagePublish publishes a page when its window opens.
	TaskTypePagePublish = "sitetree.page.publish"
	// TaskTypePageUnpublish takes a page offline when its window closes.
	TaskTypePageUnpublish = "sitetree.page.unpublish"

	// TargetTypePage tags tasks that mutate page rows.
	TargetTypePage = "page"
)

// PagePublishTaskKey builds the dedupe key for a page publish intent. One
// pending publish per page; rescheduling supersedes in place.
func PagePublishTaskKey(pageID uuid.UUID) string {
	return fmt.Sprintf("page:%s:publish", pageID)
}

// PageUnpublishTaskKey builds the dedupe key for a page unpublish intent.
func PageUnpublishTaskKey(pageID uuid.UUID) string {
	return fmt.Sprintf("page:%s:unpublish", pageID)
}
