package jobs_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-sitetree/internal/domain"
	"github.com/goliatone/go-sitetree/internal/jobs"
	"github.com/goliatone/go-sitetree/internal/locales"
	"github.com/goliatone/go-sitetree/internal/pages"
	"github.com/goliatone/go-sitetree/internal/taskqueue"
	"github.com/goliatone/go-sitetree/pkg/interfaces"
)

type schedulerFixture struct {
	now      time.Time
	queue    interfaces.TaskQueue
	locales  locales.Repository
	pages    pages.PageRepository
	svc      pages.Service
	worker   *jobs.Worker
	audit    *jobs.MemoryAuditRecorder
	localeID uuid.UUID
}

func newSchedulerFixture(t *testing.T) *schedulerFixture {
	t.Helper()
	ctx := context.Background()

	f := &schedulerFixture{
		now:      time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		localeID: uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		audit:    jobs.NewMemoryAuditRecorder(),
	}
	clock := func() time.Time { return f.now }

	f.locales = locales.NewMemoryRepository()
	if _, err := f.locales.Create(ctx, &locales.Locale{
		ID:       f.localeID,
		Code:     "en",
		Display:  "English",
		IsActive: true,
	}); err != nil {
		t.Fatalf("seed locale: %v", err)
	}

	f.queue = taskqueue.NewMemoryQueue(taskqueue.WithMemoryClock(clock))
	f.pages = pages.NewMemoryRepository()
	f.svc = pages.NewService(f.pages, f.locales,
		pages.WithClock(clock),
		pages.WithTaskQueue(f.queue),
	)
	f.worker = jobs.NewWorker(f.queue, f.svc,
		jobs.WithWorkerClock(clock),
		jobs.WithWorkerAudit(f.audit),
	)
	return f
}

func (f *schedulerFixture) mustCreate(t *testing.T, slug string) *pages.Page {
	t.Helper()
	page, err := f.svc.Create(context.Background(), pages.CreatePageRequest{
		LocaleID: f.localeID,
		Slug:     slug,
		Title:    slug,
	})
	if err != nil {
		t.Fatalf("create %q: %v", slug, err)
	}
	return page
}

func TestWorkerPublishesAtTickTime(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	page := f.mustCreate(t, "launch")
	publishAt := f.now.Add(time.Hour)
	if _, err := f.svc.Schedule(ctx, pages.SchedulePageRequest{PageID: page.ID, PublishAt: &publishAt}); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	// before the window opens nothing is claimed
	report, err := f.worker.Process(ctx)
	if err != nil {
		t.Fatalf("early pass: %v", err)
	}
	if report.Claimed != 0 {
		t.Fatalf("expected no due tasks, claimed %d", report.Claimed)
	}

	// first tick after the window, a few minutes late
	f.now = publishAt.Add(3 * time.Minute)
	report, err = f.worker.Process(ctx)
	if err != nil {
		t.Fatalf("pass: %v", err)
	}
	if report.Claimed != 1 || report.Completed != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}

	published, err := f.svc.Get(ctx, page.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if published.Status != string(domain.StatusPublished) {
		t.Fatalf("expected published, got %s", published.Status)
	}
	// the record carries the execution time, not the requested time
	if published.PublishedAt == nil || !published.PublishedAt.Equal(f.now) {
		t.Fatalf("expected PublishedAt %v, got %v", f.now, published.PublishedAt)
	}

	task, err := f.queue.GetByKey(ctx, taskqueue.PagePublishTaskKey(page.ID))
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if task.Status != interfaces.TaskStatusCompleted {
		t.Fatalf("expected completed task, got %s", task.Status)
	}
}

func TestWorkerUnpublishDefaultsToArchived(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	page := f.mustCreate(t, "launch")
	publishAt := f.now.Add(time.Hour)
	unpublishAt := f.now.Add(2 * time.Hour)
	if _, err := f.svc.Schedule(ctx, pages.SchedulePageRequest{
		PageID:      page.ID,
		PublishAt:   &publishAt,
		UnpublishAt: &unpublishAt,
	}); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	f.now = publishAt
	if _, err := f.worker.Process(ctx); err != nil {
		t.Fatalf("publish pass: %v", err)
	}

	f.now = unpublishAt
	report, err := f.worker.Process(ctx)
	if err != nil {
		t.Fatalf("unpublish pass: %v", err)
	}
	if report.Completed != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}

	archived, err := f.svc.Get(ctx, page.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if archived.Status != string(domain.StatusArchived) {
		t.Fatalf("expected archived by default, got %s", archived.Status)
	}
}

func TestWorkerHonorsRevertTo(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	page := f.mustCreate(t, "launch")
	if _, err := f.svc.Publish(ctx, pages.PublishPageRequest{PageID: page.ID}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	unpublishAt := f.now.Add(time.Hour)
	if _, err := f.svc.Schedule(ctx, pages.SchedulePageRequest{
		PageID:      page.ID,
		UnpublishAt: &unpublishAt,
		RevertTo:    "draft",
	}); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	f.now = unpublishAt
	if _, err := f.worker.Process(ctx); err != nil {
		t.Fatalf("pass: %v", err)
	}

	reverted, err := f.svc.Get(ctx, page.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reverted.Status != string(domain.StatusDraft) {
		t.Fatalf("expected draft, got %s", reverted.Status)
	}
}

func TestWorkerSkipsIllegalTransitions(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	page := f.mustCreate(t, "stale")
	if _, err := f.svc.Archive(ctx, pages.ArchivePageRequest{PageID: page.ID}); err != nil {
		t.Fatalf("archive: %v", err)
	}

	// a task that survived the page moving on, enqueued behind the service
	task, err := f.queue.Enqueue(ctx, interfaces.TaskSpec{
		Key:        taskqueue.PagePublishTaskKey(page.ID),
		Type:       taskqueue.TaskTypePagePublish,
		TargetType: taskqueue.TargetTypePage,
		TargetID:   page.ID.String(),
		RunAt:      f.now,
		Payload:    map[string]any{"page_id": page.ID.String()},
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	report, err := f.worker.Process(ctx)
	if err != nil {
		t.Fatalf("pass: %v", err)
	}
	if report.Skipped != 1 || report.Failed != 0 {
		t.Fatalf("expected a skip, got %+v", report)
	}

	// skipping finishes the task, retrying would never succeed
	done, err := f.queue.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if done.Status != interfaces.TaskStatusCompleted {
		t.Fatalf("expected completed, got %s", done.Status)
	}

	entries := f.audit.Entries()
	if len(entries) != 1 || entries[0].Outcome != jobs.OutcomeSkipped {
		t.Fatalf("expected skipped audit entry, got %+v", entries)
	}
}

func TestWorkerRetriesUntilFailed(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	task, err := f.queue.Enqueue(ctx, interfaces.TaskSpec{
		Key:        "page:broken:publish",
		Type:       taskqueue.TaskTypePagePublish,
		TargetType: taskqueue.TargetTypePage,
		TargetID:   "not-a-uuid",
		RunAt:      f.now,
		Payload:    map[string]any{"page_id": "not-a-uuid"},
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	for pass := 1; pass <= taskqueue.DefaultMaxAttempts; pass++ {
		report, err := f.worker.Process(ctx)
		if err != nil {
			t.Fatalf("pass %d: %v", pass, err)
		}
		if report.Failed != 1 {
			t.Fatalf("pass %d: expected a failure, got %+v", pass, report)
		}
	}

	terminal, err := f.queue.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if terminal.Status != interfaces.TaskStatusFailed {
		t.Fatalf("expected terminal failed, got %s", terminal.Status)
	}
	if terminal.Attempt != taskqueue.DefaultMaxAttempts {
		t.Fatalf("expected %d attempts, got %d", taskqueue.DefaultMaxAttempts, terminal.Attempt)
	}

	// the exhausted task never comes due again
	report, err := f.worker.Process(ctx)
	if err != nil {
		t.Fatalf("extra pass: %v", err)
	}
	if report.Claimed != 0 {
		t.Fatalf("expected nothing claimable, got %+v", report)
	}

	entries := f.audit.Entries()
	if len(entries) != taskqueue.DefaultMaxAttempts {
		t.Fatalf("expected %d audit entries, got %d", taskqueue.DefaultMaxAttempts, len(entries))
	}
	for i, entry := range entries {
		if entry.Outcome != jobs.OutcomeFailed || entry.Attempt != i+1 {
			t.Fatalf("unexpected audit entry %d: %+v", i, entry)
		}
	}
}
