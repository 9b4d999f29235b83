package taskqueue

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-sitetree/pkg/interfaces"
)

// ScheduledTask is the persisted queue row.
type ScheduledTask struct {
	bun.BaseModel `bun:"table:scheduled_tasks,alias:st"`

	ID           uuid.UUID      `bun:",pk,type:uuid" json:"id"`
	Key          string         `bun:"key,notnull" json:"key"`
	Type         string         `bun:"type,notnull" json:"type"`
	TargetType   string         `bun:"target_type,notnull" json:"target_type"`
	TargetID     string         `bun:"target_id,notnull" json:"target_id"`
	RunAt        time.Time      `bun:"run_at,notnull" json:"run_at"`
	Payload      map[string]any `bun:"payload,type:jsonb" json:"payload,omitempty"`
	Status       string         `bun:"status,notnull,default:'pending'" json:"status"`
	Attempt      int            `bun:"attempt,notnull,default:0" json:"attempt"`
	MaxAttempts  int            `bun:"max_attempts,notnull" json:"max_attempts"`
	LastError    string         `bun:"last_error" json:"last_error,omitempty"`
	ClaimedUntil *time.Time     `bun:"claimed_until,nullzero" json:"claimed_until,omitempty"`
	CreatedAt    time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time      `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// BunQueue persists scheduled tasks through bun. Claims use conditional
// updates keyed on the current status so two workers sharing the database
// never execute the same task.
type BunQueue struct {
	db          *bun.DB
	clock       func() time.Time
	maxAttempts int
	lease       time.Duration
}

// BunOption customizes the bun queue.
type BunOption func(*BunQueue)

// WithBunClock pins the queue clock.
func WithBunClock(clock func() time.Time) BunOption {
	return func(q *BunQueue) {
		if clock != nil {
			q.clock = clock
		}
	}
}

// WithBunMaxAttempts sets the default attempt budget.
func WithBunMaxAttempts(attempts int) BunOption {
	return func(q *BunQueue) {
		if attempts > 0 {
			q.maxAttempts = attempts
		}
	}
}

// WithBunLease sets the claim lease duration.
func WithBunLease(lease time.Duration) BunOption {
	return func(q *BunQueue) {
		if lease > 0 {
			q.lease = lease
		}
	}
}

// NewBunQueue constructs a database-backed task queue.
func NewBunQueue(db *bun.DB, opts ...BunOption) *BunQueue {
	queue := &BunQueue{
		db:          db,
		clock:       time.Now,
		maxAttempts: DefaultMaxAttempts,
		lease:       DefaultLease,
	}
	for _, opt := range opts {
		opt(queue)
	}
	return queue
}

func (q *BunQueue) Enqueue(ctx context.Context, spec interfaces.TaskSpec) (*interfaces.Task, error) {
	now := q.clock()
	if spec.MaxAttempts <= 0 {
		spec.MaxAttempts = q.maxAttempts
	}

	var stored *ScheduledTask
	err := q.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		key := strings.TrimSpace(spec.Key)
		if key != "" {
			existing := &ScheduledTask{}
			err := tx.NewSelect().Model(existing).
				Where("st.key = ?", key).
				Where("st.status = ?", string(interfaces.TaskStatusPending)).
				Limit(1).
				Scan(ctx)
			if err == nil {
				applySpec(existing, spec, now)
				if _, err := tx.NewUpdate().Model(existing).WherePK().Exec(ctx); err != nil {
					return err
				}
				stored = existing
				return nil
			}
			if !errors.Is(err, sql.ErrNoRows) {
				return err
			}
		}

		record := &ScheduledTask{
			ID:        uuid.New(),
			CreatedAt: now,
		}
		applySpec(record, spec, now)
		if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
			return err
		}
		stored = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toTask(stored), nil
}

func applySpec(record *ScheduledTask, spec interfaces.TaskSpec, now time.Time) {
	record.Key = strings.TrimSpace(spec.Key)
	record.Type = spec.Type
	record.TargetType = spec.TargetType
	record.TargetID = spec.TargetID
	record.RunAt = spec.RunAt
	record.Payload = spec.Payload
	record.Status = string(interfaces.TaskStatusPending)
	record.Attempt = 0
	record.MaxAttempts = spec.MaxAttempts
	record.LastError = ""
	record.ClaimedUntil = nil
	record.UpdatedAt = now
}

func (q *BunQueue) Cancel(ctx context.Context, id string) error {
	result, err := q.db.NewUpdate().Model((*ScheduledTask)(nil)).
		Set("status = ?", string(interfaces.TaskStatusCanceled)).
		Set("claimed_until = NULL").
		Set("updated_at = ?", q.clock()).
		Where("st.id = ?", id).
		Where("st.status = ?", string(interfaces.TaskStatusPending)).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (q *BunQueue) CancelByKey(ctx context.Context, key string) error {
	result, err := q.db.NewUpdate().Model((*ScheduledTask)(nil)).
		Set("status = ?", string(interfaces.TaskStatusCanceled)).
		Set("claimed_until = NULL").
		Set("updated_at = ?", q.clock()).
		Where("st.key = ?", strings.TrimSpace(key)).
		Where("st.status = ?", string(interfaces.TaskStatusPending)).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (q *BunQueue) Get(ctx context.Context, id string) (*interfaces.Task, error) {
	record := &ScheduledTask{}
	err := q.db.NewSelect().Model(record).Where("st.id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, interfaces.ErrTaskNotFound
		}
		return nil, err
	}
	return toTask(record), nil
}

func (q *BunQueue) GetByKey(ctx context.Context, key string) (*interfaces.Task, error) {
	record := &ScheduledTask{}
	err := q.db.NewSelect().Model(record).
		Where("st.key = ?", strings.TrimSpace(key)).
		Where("st.status = ?", string(interfaces.TaskStatusPending)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, interfaces.ErrTaskNotFound
		}
		return nil, err
	}
	return toTask(record), nil
}

func (q *BunQueue) ListDue(ctx context.Context, until time.Time, limit int) ([]*interfaces.Task, error) {
	var records []*ScheduledTask
	query := q.db.NewSelect().Model(&records).
		Where("st.status = ?", string(interfaces.TaskStatusPending)).
		Where("st.run_at <= ?", until).
		OrderExpr("st.run_at ASC, st.id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	return toTasks(records), nil
}

func (q *BunQueue) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*interfaces.Task, error) {
	var candidates []*ScheduledTask
	query := q.db.NewSelect().Model(&candidates).
		Where("(st.status = ? AND st.run_at <= ?) OR (st.status = ? AND st.claimed_until < ?)",
			string(interfaces.TaskStatusPending), now,
			string(interfaces.TaskStatusClaimed), now,
		).
		OrderExpr("st.run_at ASC, st.id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}

	leaseEnd := now.Add(q.lease)
	claimed := make([]*interfaces.Task, 0, len(candidates))
	for _, candidate := range candidates {
		// the status guard makes the claim a compare-and-swap; losing a race
		// to another worker simply skips the row
		result, err := q.db.NewUpdate().Model((*ScheduledTask)(nil)).
			Set("status = ?", string(interfaces.TaskStatusClaimed)).
			Set("claimed_until = ?", leaseEnd).
			Set("updated_at = ?", now).
			Where("st.id = ?", candidate.ID).
			Where("st.status = ?", candidate.Status).
			Where("st.updated_at = ?", candidate.UpdatedAt).
			Exec(ctx)
		if err != nil {
			return nil, err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 0 {
			continue
		}
		candidate.Status = string(interfaces.TaskStatusClaimed)
		candidate.ClaimedUntil = &leaseEnd
		candidate.UpdatedAt = now
		claimed = append(claimed, toTask(candidate))
	}
	return claimed, nil
}

func (q *BunQueue) MarkDone(ctx context.Context, id string) error {
	result, err := q.db.NewUpdate().Model((*ScheduledTask)(nil)).
		Set("status = ?", string(interfaces.TaskStatusCompleted)).
		Set("claimed_until = NULL").
		Set("updated_at = ?", q.clock()).
		Where("st.id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (q *BunQueue) MarkFailed(ctx context.Context, id string, cause error) error {
	record := &ScheduledTask{}
	err := q.db.NewSelect().Model(record).Where("st.id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return interfaces.ErrTaskNotFound
		}
		return err
	}

	record.Attempt++
	record.ClaimedUntil = nil
	record.UpdatedAt = q.clock()
	if cause != nil {
		record.LastError = cause.Error()
	}
	budget := record.MaxAttempts
	if budget <= 0 {
		budget = q.maxAttempts
	}
	if record.Attempt >= budget {
		record.Status = string(interfaces.TaskStatusFailed)
	} else {
		record.Status = string(interfaces.TaskStatusPending)
	}

	_, err = q.db.NewUpdate().Model(record).WherePK().Exec(ctx)
	return err
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return interfaces.ErrTaskNotFound
	}
	return nil
}

func toTask(record *ScheduledTask) *interfaces.Task {
	if record == nil {
		return nil
	}
	task := &interfaces.Task{
		TaskSpec: interfaces.TaskSpec{
			Key:         record.Key,
			Type:        record.Type,
			TargetType:  record.TargetType,
			TargetID:    record.TargetID,
			RunAt:       record.RunAt,
			Payload:     record.Payload,
			MaxAttempts: record.MaxAttempts,
		},
		ID:        record.ID.String(),
		Attempt:   record.Attempt,
		LastError: record.LastError,
		Status:    interfaces.TaskStatus(record.Status),
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
	if record.ClaimedUntil != nil {
		until := *record.ClaimedUntil
		task.ClaimedUntil = &until
	}
	return task
}

func toTasks(records []*ScheduledTask) []*interfaces.Task {
	tasks := make([]*interfaces.Task, 0, len(records))
	for _, record := range records {
		tasks = append(tasks, toTask(record))
	}
	return tasks
}

var _ interfaces.TaskQueue = (*BunQueue)(nil)
