package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-sitetree/internal/domain"
	"github.com/goliatone/go-sitetree/internal/logging"
	"github.com/goliatone/go-sitetree/internal/pages"
	"github.com/goliatone/go-sitetree/internal/taskqueue"
	"github.com/goliatone/go-sitetree/pkg/interfaces"
)

// DefaultBatchSize caps how many due tasks one tick claims.
const DefaultBatchSize = 50

var errUnknownTaskType = errors.New("jobs: unknown task type")

// ProcessReport summarizes one worker pass.
type ProcessReport struct {
	Claimed   int `json:"claimed"`
	Completed int `json:"completed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Worker executes due publish and unpublish tasks. Each task runs in its own
// unit of work so one failure never poisons the rest of the batch.
type Worker struct {
	queue     interfaces.TaskQueue
	pages     pages.Service
	logger    interfaces.Logger
	clock     func() time.Time
	audit     AuditRecorder
	batchSize int
}

// WorkerOption customizes the worker.
type WorkerOption func(*Worker)

// WithWorkerLogger attaches the scheduler logger.
func WithWorkerLogger(logger interfaces.Logger) WorkerOption {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithWorkerClock pins the worker clock.
func WithWorkerClock(clock func() time.Time) WorkerOption {
	return func(w *Worker) {
		if clock != nil {
			w.clock = clock
		}
	}
}

// WithWorkerAudit attaches an execution audit trail.
func WithWorkerAudit(recorder AuditRecorder) WorkerOption {
	return func(w *Worker) {
		w.audit = recorder
	}
}

// WithWorkerBatchSize caps claims per pass.
func WithWorkerBatchSize(size int) WorkerOption {
	return func(w *Worker) {
		if size > 0 {
			w.batchSize = size
		}
	}
}

// NewWorker constructs a scheduler worker.
func NewWorker(queue interfaces.TaskQueue, pagesService pages.Service, opts ...WorkerOption) *Worker {
	worker := &Worker{
		queue:     queue,
		pages:     pagesService,
		logger:    logging.NoOp(),
		clock:     time.Now,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(worker)
	}
	return worker
}

// Process claims due tasks and executes them one by one.
func (w *Worker) Process(ctx context.Context) (*ProcessReport, error) {
	now := w.clock()
	claimed, err := w.queue.ClaimDue(ctx, now, w.batchSize)
	if err != nil {
		return nil, fmt.Errorf("claim due tasks: %w", err)
	}

	report := &ProcessReport{Claimed: len(claimed)}
	for _, task := range claimed {
		outcome := w.handleTask(ctx, task)
		switch outcome.status {
		case OutcomeCompleted:
			report.Completed++
		case OutcomeSkipped:
			report.Skipped++
		default:
			report.Failed++
		}
		w.recordAudit(ctx, task, outcome)
	}

	if report.Claimed > 0 {
		w.logger.Info("scheduler pass finished",
			"claimed", report.Claimed,
			"completed", report.Completed,
			"skipped", report.Skipped,
			"failed", report.Failed,
		)
	}
	return report, nil
}

type taskOutcome struct {
	status string
	err    error
}

func (w *Worker) handleTask(ctx context.Context, task *interfaces.Task) taskOutcome {
	pageID, err := taskPageID(task)
	if err != nil {
		return w.fail(ctx, task, err)
	}

	switch task.Type {
	case taskqueue.TaskTypePagePublish:
		_, err = w.pages.Publish(ctx, pages.PublishPageRequest{
			PageID:  pageID,
			ActorID: taskActorID(task),
		})
	case taskqueue.TaskTypePageUnpublish:
		_, err = w.pages.Unpublish(ctx, pages.UnpublishPageRequest{
			PageID:   pageID,
			RevertTo: taskRevertTo(task),
			ActorID:  taskActorID(task),
		})
	default:
		return w.fail(ctx, task, fmt.Errorf("%w: %s", errUnknownTaskType, task.Type))
	}

	if err != nil {
		// a transition that is illegal now stays illegal on retry, so the
		// task is finished rather than retried
		if errors.Is(err, pages.ErrTransitionInvalid) {
			if markErr := w.queue.MarkDone(ctx, task.ID); markErr != nil {
				w.logger.Error("mark task done failed", "task_id", task.ID, "error", markErr)
			}
			w.logger.Warn("task skipped, page state moved on",
				"task_id", task.ID,
				"task_type", task.Type,
				"error", err,
			)
			return taskOutcome{status: OutcomeSkipped, err: err}
		}
		return w.fail(ctx, task, err)
	}

	if err := w.queue.MarkDone(ctx, task.ID); err != nil {
		w.logger.Error("mark task done failed", "task_id", task.ID, "error", err)
		return taskOutcome{status: OutcomeFailed, err: err}
	}
	return taskOutcome{status: OutcomeCompleted}
}

func (w *Worker) fail(ctx context.Context, task *interfaces.Task, cause error) taskOutcome {
	if err := w.queue.MarkFailed(ctx, task.ID, cause); err != nil {
		w.logger.Error("mark task failed errored", "task_id", task.ID, "error", err)
	}
	w.logger.Error("task execution failed",
		"task_id", task.ID,
		"task_type", task.Type,
		"attempt", task.Attempt+1,
		"error", cause,
	)
	return taskOutcome{status: OutcomeFailed, err: cause}
}

func (w *Worker) recordAudit(ctx context.Context, task *interfaces.Task, outcome taskOutcome) {
	if w.audit == nil {
		return
	}
	entry := AuditEntry{
		TaskID:     task.ID,
		TaskKey:    task.Key,
		TaskType:   task.Type,
		TargetID:   task.TargetID,
		Outcome:    outcome.status,
		Attempt:    task.Attempt + 1,
		RecordedAt: w.clock(),
	}
	if outcome.err != nil {
		entry.Error = outcome.err.Error()
	}
	if outcome.status == OutcomeCompleted {
		entry.Attempt = task.Attempt
	}
	if err := w.audit.Record(ctx, entry); err != nil {
		w.logger.Warn("audit record failed", "task_id", task.ID, "error", err)
	}
}

func taskPageID(task *interfaces.Task) (uuid.UUID, error) {
	if raw, ok := task.Payload["page_id"].(string); ok {
		if id, err := uuid.Parse(raw); err == nil {
			return id, nil
		}
	}
	if id, err := uuid.Parse(task.TargetID); err == nil {
		return id, nil
	}
	return uuid.Nil, fmt.Errorf("jobs: task %s carries no valid page id", task.ID)
}

func taskActorID(task *interfaces.Task) uuid.UUID {
	if raw, ok := task.Payload["scheduled_by"].(string); ok {
		if id, err := uuid.Parse(raw); err == nil {
			return id
		}
	}
	return uuid.Nil
}

func taskRevertTo(task *interfaces.Task) string {
	if raw, ok := task.Payload["revert_to"].(string); ok {
		if trimmed := strings.TrimSpace(raw); trimmed != "" {
			return trimmed
		}
	}
	return string(domain.StatusArchived)
}
