package taskqueue_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/goliatone/go-sitetree/internal/taskqueue"
	"github.com/goliatone/go-sitetree/pkg/interfaces"
)

func newQueue(now *time.Time) interfaces.TaskQueue {
	counter := 0
	return taskqueue.NewMemoryQueue(
		taskqueue.WithMemoryClock(func() time.Time { return *now }),
		taskqueue.WithMemoryIDGenerator(func() string {
			counter++
			return fmt.Sprintf("task-%03d", counter)
		}),
	)
}

func spec(key string, runAt time.Time) interfaces.TaskSpec {
	return interfaces.TaskSpec{
		Key:        key,
		Type:       taskqueue.TaskTypePagePublish,
		TargetType: taskqueue.TargetTypePage,
		TargetID:   "d2f1a6c0-0000-0000-0000-000000000001",
		RunAt:      runAt,
		Payload:    map[string]any{"page_id": "d2f1a6c0-0000-0000-0000-000000000001"},
	}
}

func TestEnqueueSupersedesPendingKey(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	queue := newQueue(&now)
	ctx := context.Background()

	first, err := queue.Enqueue(ctx, spec("page:1:publish", now.Add(time.Hour)))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	second, err := queue.Enqueue(ctx, spec("page:1:publish", now.Add(2*time.Hour)))
	if err != nil {
		t.Fatalf("re-enqueue: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected in-place supersede, got new task %s", second.ID)
	}
	if !second.RunAt.Equal(now.Add(2 * time.Hour)) {
		t.Fatalf("expected updated run time, got %v", second.RunAt)
	}

	due, err := queue.ListDue(ctx, now.Add(3*time.Hour), 0)
	if err != nil {
		t.Fatalf("list due: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("expected a single pending task, got %d", len(due))
	}
}

func TestEnqueueSupersedeResetsAttempts(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	queue := newQueue(&now)
	ctx := context.Background()

	task, err := queue.Enqueue(ctx, spec("page:1:publish", now))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := queue.MarkFailed(ctx, task.ID, errors.New("boom")); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	replaced, err := queue.Enqueue(ctx, spec("page:1:publish", now.Add(time.Hour)))
	if err != nil {
		t.Fatalf("re-enqueue: %v", err)
	}
	if replaced.Attempt != 0 || replaced.LastError != "" {
		t.Fatalf("expected attempt counter reset, got attempt=%d last_error=%q", replaced.Attempt, replaced.LastError)
	}
}

func TestClaimDueIsExclusive(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	queue := newQueue(&now)
	ctx := context.Background()

	if _, err := queue.Enqueue(ctx, spec("page:1:publish", now.Add(-time.Minute))); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := queue.Enqueue(ctx, spec("page:2:publish", now.Add(time.Hour))); err != nil {
		t.Fatalf("enqueue future: %v", err)
	}

	claimed, err := queue.ClaimDue(ctx, now, 10)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if len(claimed) != 1 {
		t.Fatalf("expected only the due task, got %d", len(claimed))
	}
	if claimed[0].Status != interfaces.TaskStatusClaimed || claimed[0].ClaimedUntil == nil {
		t.Fatalf("expected a leased claim")
	}

	// a second worker passing while the lease holds gets nothing
	again, err := queue.ClaimDue(ctx, now, 10)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("expected leased task to stay hidden, got %d", len(again))
	}
}

func TestClaimDueReclaimsExpiredLease(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	queue := newQueue(&now)
	ctx := context.Background()

	if _, err := queue.Enqueue(ctx, spec("page:1:publish", now)); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := queue.ClaimDue(ctx, now, 1); err != nil {
		t.Fatalf("first claim: %v", err)
	}

	later := now.Add(taskqueue.DefaultLease + time.Second)
	reclaimed, err := queue.ClaimDue(ctx, later, 1)
	if err != nil {
		t.Fatalf("reclaim: %v", err)
	}
	if len(reclaimed) != 1 {
		t.Fatalf("expected expired lease to be reclaimed, got %d", len(reclaimed))
	}
}

func TestMarkFailedRetriesThenFails(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	queue := newQueue(&now)
	ctx := context.Background()

	task, err := queue.Enqueue(ctx, spec("page:1:publish", now))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	for attempt := 1; attempt < taskqueue.DefaultMaxAttempts; attempt++ {
		if err := queue.MarkFailed(ctx, task.ID, errors.New("transient")); err != nil {
			t.Fatalf("mark failed %d: %v", attempt, err)
		}
		current, err := queue.Get(ctx, task.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if current.Status != interfaces.TaskStatusPending {
			t.Fatalf("expected retry to stay pending at attempt %d, got %s", attempt, current.Status)
		}
		if current.Attempt != attempt {
			t.Fatalf("expected attempt %d, got %d", attempt, current.Attempt)
		}
	}

	if err := queue.MarkFailed(ctx, task.ID, errors.New("persistent")); err != nil {
		t.Fatalf("final mark failed: %v", err)
	}
	terminal, err := queue.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("get terminal: %v", err)
	}
	if terminal.Status != interfaces.TaskStatusFailed {
		t.Fatalf("expected terminal failed, got %s", terminal.Status)
	}
	if terminal.LastError != "persistent" {
		t.Fatalf("expected last error recorded, got %q", terminal.LastError)
	}

	due, err := queue.ListDue(ctx, now.Add(time.Hour), 0)
	if err != nil {
		t.Fatalf("list due: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("failed task must not be due again")
	}
}

func TestCancelByKeyOnlyAffectsPending(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	queue := newQueue(&now)
	ctx := context.Background()

	task, err := queue.Enqueue(ctx, spec("page:1:publish", now))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if err := queue.CancelByKey(ctx, "page:1:publish"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	canceled, err := queue.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if canceled.Status != interfaces.TaskStatusCanceled {
		t.Fatalf("expected canceled, got %s", canceled.Status)
	}

	if err := queue.CancelByKey(ctx, "page:missing:publish"); !errors.Is(err, interfaces.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}

	// a claimed task keeps running even when its key is canceled
	if _, err := queue.Enqueue(ctx, spec("page:2:publish", now)); err != nil {
		t.Fatalf("enqueue second: %v", err)
	}
	claimed, err := queue.ClaimDue(ctx, now, 1)
	if err != nil || len(claimed) != 1 {
		t.Fatalf("claim second: %v (%d)", err, len(claimed))
	}
	if err := queue.CancelByKey(ctx, "page:2:publish"); err != nil {
		t.Fatalf("cancel claimed: %v", err)
	}
	still, err := queue.Get(ctx, claimed[0].ID)
	if err != nil {
		t.Fatalf("get claimed: %v", err)
	}
	if still.Status != interfaces.TaskStatusClaimed {
		t.Fatalf("expected claim to survive cancel, got %s", still.Status)
	}
}
