package interfaces

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTaskNotFound reports missing tasks when looking them up by ID or key.
	ErrTaskNotFound = errors.New("taskqueue: task not found")
)

// TaskQueue stores deferred publish/unpublish intents and hands them to the
// scheduler worker when they come due. Entries are durable records decoupled
// from the rows they will eventually mutate.
type TaskQueue interface {
	// Enqueue registers a task for future execution. If a pending task with the
	// same key already exists it is replaced in place, so rescheduling the same
	// intent never accumulates duplicates.
	Enqueue(ctx context.Context, spec TaskSpec) (*Task, error)
	// Cancel marks the task as canceled so it will not be claimed.
	Cancel(ctx context.Context, id string) error
	// CancelByKey cancels the pending task associated with the supplied key.
	CancelByKey(ctx context.Context, key string) error
	// Get returns the stored task by identifier.
	Get(ctx context.Context, id string) (*Task, error)
	// GetByKey returns the pending task that matches the supplied key.
	GetByKey(ctx context.Context, key string) (*Task, error)
	// ListDue returns pending tasks scheduled to run at or before the supplied
	// instant without claiming them. Intended for dry-run reporting.
	ListDue(ctx context.Context, until time.Time, limit int) ([]*Task, error)
	// ClaimDue atomically claims up to limit due tasks for execution. A claimed
	// task carries a lease; two concurrent workers can never claim the same
	// task while its lease is live.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]*Task, error)
	// MarkDone marks the task as successfully executed.
	MarkDone(ctx context.Context, id string) error
	// MarkFailed records a failed attempt. Once the attempt budget is exhausted
	// the task lands in the terminal failed state with the error preserved.
	MarkFailed(ctx context.Context, id string, err error) error
}

// TaskStatus describes the lifecycle of a scheduled task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusClaimed   TaskStatus = "claimed"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusCanceled  TaskStatus = "canceled"
	TaskStatusFailed    TaskStatus = "failed"
)

// TaskSpec captures the required information to enqueue a task.
type TaskSpec struct {
	// Key uniquely identifies the intent so new requests safely supersede
	// existing pending entries (e.g. "page:<id>:publish").
	Key string
	// Type describes the action to perform (e.g. sitetree.page.publish).
	Type string
	// TargetType discriminates the kind of row the task mutates. Pages today;
	// new content types extend the variant set.
	TargetType string
	// TargetID identifies the target row.
	TargetID string
	// RunAt specifies when the task should execute.
	RunAt time.Time
	// Payload carries contextual data required by the worker.
	Payload map[string]any
	// MaxAttempts limits retries when a worker reports failure. Zero applies
	// the queue default.
	MaxAttempts int
}

// Task represents a stored queue entry with metadata managed by the queue
// implementation.
type Task struct {
	TaskSpec
	ID           string
	Attempt      int
	LastError    string
	Status       TaskStatus
	ClaimedUntil *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
