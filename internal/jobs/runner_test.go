package jobs_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-sitetree/internal/jobs"
	"github.com/goliatone/go-sitetree/internal/pages"
	"github.com/goliatone/go-sitetree/internal/taskqueue"
	"github.com/goliatone/go-sitetree/pkg/interfaces"
)

func TestRunnerTickProcessesDueTasks(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	page := f.mustCreate(t, "launch")
	publishAt := f.now.Add(time.Hour)
	if _, err := f.svc.Schedule(ctx, pages.SchedulePageRequest{PageID: page.ID, PublishAt: &publishAt}); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	runner := jobs.NewRunner(f.worker, f.queue, jobs.WithRunnerClock(func() time.Time { return f.now }))

	f.now = publishAt
	report, err := runner.Tick(ctx)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if report.Completed != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestRunnerDryRunDoesNotClaim(t *testing.T) {
	f := newSchedulerFixture(t)
	ctx := context.Background()

	page := f.mustCreate(t, "launch")
	publishAt := f.now.Add(time.Hour)
	if _, err := f.svc.Schedule(ctx, pages.SchedulePageRequest{PageID: page.ID, PublishAt: &publishAt}); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	runner := jobs.NewRunner(f.worker, f.queue, jobs.WithRunnerClock(func() time.Time { return f.now }))

	f.now = publishAt
	due, err := runner.DryRun(ctx)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("expected one due task, got %d", len(due))
	}

	task, err := f.queue.GetByKey(ctx, taskqueue.PagePublishTaskKey(page.ID))
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if task.Status != interfaces.TaskStatusPending {
		t.Fatalf("dry run must not claim, got %s", task.Status)
	}
}
