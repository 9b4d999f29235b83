package taskqueue

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-sitetree/pkg/interfaces"
)

const (
	// DefaultMaxAttempts bounds retries before a task lands in failed.
	DefaultMaxAttempts = 3
	// DefaultLease is how long a claim shields a task from other workers.
	DefaultLease = 50 * time.Second
)

type memoryQueue struct {
	mu          sync.RWMutex
	tasks       map[string]*interfaces.Task
	keys        map[string]string
	clock       func() time.Time
	idGenerator func() string
	maxAttempts int
	lease       time.Duration
}

// MemoryOption customizes the in-memory queue.
type MemoryOption func(*memoryQueue)

// WithMemoryClock pins the queue clock.
func WithMemoryClock(clock func() time.Time) MemoryOption {
	return func(q *memoryQueue) {
		if clock != nil {
			q.clock = clock
		}
	}
}

// WithMemoryIDGenerator overrides task id generation.
func WithMemoryIDGenerator(generator func() string) MemoryOption {
	return func(q *memoryQueue) {
		if generator != nil {
			q.idGenerator = generator
		}
	}
}

// WithMemoryMaxAttempts sets the default attempt budget.
func WithMemoryMaxAttempts(attempts int) MemoryOption {
	return func(q *memoryQueue) {
		if attempts > 0 {
			q.maxAttempts = attempts
		}
	}
}

// WithMemoryLease sets the claim lease duration.
func WithMemoryLease(lease time.Duration) MemoryOption {
	return func(q *memoryQueue) {
		if lease > 0 {
			q.lease = lease
		}
	}
}

// NewMemoryQueue constructs an in-memory task queue for the embedded setup
// and tests.
func NewMemoryQueue(opts ...MemoryOption) interfaces.TaskQueue {
	queue := &memoryQueue{
		tasks:       make(map[string]*interfaces.Task),
		keys:        make(map[string]string),
		clock:       time.Now,
		idGenerator: func() string { return uuid.NewString() },
		maxAttempts: DefaultMaxAttempts,
		lease:       DefaultLease,
	}
	for _, opt := range opts {
		opt(queue)
	}
	return queue
}

func (q *memoryQueue) Enqueue(_ context.Context, spec interfaces.TaskSpec) (*interfaces.Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.clock()
	key := strings.TrimSpace(spec.Key)
	if spec.MaxAttempts <= 0 {
		spec.MaxAttempts = q.maxAttempts
	}

	if key != "" {
		if existingID, ok := q.keys[key]; ok {
			if existing := q.tasks[existingID]; existing != nil && existing.Status == interfaces.TaskStatusPending {
				existing.TaskSpec = spec
				existing.Attempt = 0
				existing.LastError = ""
				existing.UpdatedAt = now
				return cloneTask(existing), nil
			}
		}
	}

	task := &interfaces.Task{
		TaskSpec:  spec,
		ID:        q.idGenerator(),
		Status:    interfaces.TaskStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	q.tasks[task.ID] = task
	if key != "" {
		q.keys[key] = task.ID
	}
	return cloneTask(task), nil
}

func (q *memoryQueue) Cancel(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.tasks[id]
	if !ok {
		return interfaces.ErrTaskNotFound
	}
	q.cancelLocked(task)
	return nil
}

func (q *memoryQueue) CancelByKey(_ context.Context, key string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	id, ok := q.keys[strings.TrimSpace(key)]
	if !ok {
		return interfaces.ErrTaskNotFound
	}
	task, ok := q.tasks[id]
	if !ok {
		return interfaces.ErrTaskNotFound
	}
	q.cancelLocked(task)
	return nil
}

func (q *memoryQueue) cancelLocked(task *interfaces.Task) {
	if task.Status != interfaces.TaskStatusPending {
		return
	}
	task.Status = interfaces.TaskStatusCanceled
	task.ClaimedUntil = nil
	task.UpdatedAt = q.clock()
}

func (q *memoryQueue) Get(_ context.Context, id string) (*interfaces.Task, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	task, ok := q.tasks[id]
	if !ok {
		return nil, interfaces.ErrTaskNotFound
	}
	return cloneTask(task), nil
}

func (q *memoryQueue) GetByKey(_ context.Context, key string) (*interfaces.Task, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	id, ok := q.keys[strings.TrimSpace(key)]
	if !ok {
		return nil, interfaces.ErrTaskNotFound
	}
	task, ok := q.tasks[id]
	if !ok {
		return nil, interfaces.ErrTaskNotFound
	}
	return cloneTask(task), nil
}

func (q *memoryQueue) ListDue(_ context.Context, until time.Time, limit int) ([]*interfaces.Task, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	due := make([]*interfaces.Task, 0)
	for _, task := range q.tasks {
		if task.Status != interfaces.TaskStatusPending {
			continue
		}
		if task.RunAt.After(until) {
			continue
		}
		due = append(due, cloneTask(task))
	}
	sortTasks(due)
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (q *memoryQueue) ClaimDue(_ context.Context, now time.Time, limit int) ([]*interfaces.Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	candidates := make([]*interfaces.Task, 0)
	for _, task := range q.tasks {
		if !claimable(task, now) {
			continue
		}
		candidates = append(candidates, task)
	}
	sortTasks(candidates)
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	claimed := make([]*interfaces.Task, 0, len(candidates))
	for _, task := range candidates {
		leaseEnd := now.Add(q.lease)
		task.Status = interfaces.TaskStatusClaimed
		task.ClaimedUntil = &leaseEnd
		task.UpdatedAt = now
		claimed = append(claimed, cloneTask(task))
	}
	return claimed, nil
}

// claimable admits due pending tasks and claimed tasks whose lease expired,
// so work dropped by a crashed worker gets picked up again.
func claimable(task *interfaces.Task, now time.Time) bool {
	switch task.Status {
	case interfaces.TaskStatusPending:
		return !task.RunAt.After(now)
	case interfaces.TaskStatusClaimed:
		return task.ClaimedUntil != nil && task.ClaimedUntil.Before(now)
	default:
		return false
	}
}

func (q *memoryQueue) MarkDone(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.tasks[id]
	if !ok {
		return interfaces.ErrTaskNotFound
	}
	task.Status = interfaces.TaskStatusCompleted
	task.ClaimedUntil = nil
	task.UpdatedAt = q.clock()
	return nil
}

func (q *memoryQueue) MarkFailed(_ context.Context, id string, cause error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.tasks[id]
	if !ok {
		return interfaces.ErrTaskNotFound
	}

	task.Attempt++
	task.ClaimedUntil = nil
	task.UpdatedAt = q.clock()
	if cause != nil {
		task.LastError = cause.Error()
	}

	budget := task.MaxAttempts
	if budget <= 0 {
		budget = q.maxAttempts
	}
	if task.Attempt >= budget {
		task.Status = interfaces.TaskStatusFailed
	} else {
		task.Status = interfaces.TaskStatusPending
	}
	return nil
}

func sortTasks(tasks []*interfaces.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if !tasks[i].RunAt.Equal(tasks[j].RunAt) {
			return tasks[i].RunAt.Before(tasks[j].RunAt)
		}
		return tasks[i].ID < tasks[j].ID
	})
}

func cloneTask(task *interfaces.Task) *interfaces.Task {
	if task == nil {
		return nil
	}
	cloned := *task
	if task.ClaimedUntil != nil {
		until := *task.ClaimedUntil
		cloned.ClaimedUntil = &until
	}
	if task.Payload != nil {
		payload := make(map[string]any, len(task.Payload))
		for k, v := range task.Payload {
			payload[k] = v
		}
		cloned.Payload = payload
	}
	return &cloned
}
