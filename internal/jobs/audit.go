package jobs

import (
	"context"
	"sync"
	"time"
)

// Task outcomes recorded by the worker.
const (
	OutcomeCompleted = "completed"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// AuditEntry records one task execution attempt.
type AuditEntry struct {
	TaskID     string    `json:"task_id"`
	TaskKey    string    `json:"task_key"`
	TaskType   string    `json:"task_type"`
	TargetID   string    `json:"target_id"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
	Attempt    int       `json:"attempt"`
	RecordedAt time.Time `json:"recorded_at"`
}

// AuditRecorder receives execution records from the worker.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// AuditRecorderFunc adapts a function to AuditRecorder.
type AuditRecorderFunc func(ctx context.Context, entry AuditEntry) error

func (f AuditRecorderFunc) Record(ctx context.Context, entry AuditEntry) error {
	return f(ctx, entry)
}

// MemoryAuditRecorder keeps execution records in memory.
type MemoryAuditRecorder struct {
	mu      sync.RWMutex
	entries []AuditEntry
}

// NewMemoryAuditRecorder constructs the in-memory audit trail used by the
// embedded setup and tests.
func NewMemoryAuditRecorder() *MemoryAuditRecorder {
	return &MemoryAuditRecorder{}
}

func (m *MemoryAuditRecorder) Record(_ context.Context, entry AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

// Entries returns a copy of everything recorded so far.
func (m *MemoryAuditRecorder) Entries() []AuditEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]AuditEntry, len(m.entries))
	copy(out, m.entries)
	return out
}
