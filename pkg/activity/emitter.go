package activity

import (
	"context"
	"sync"
)

// Event describes an observable fact produced by the tree or the scheduler:
// a page moved, a path changed, a status transitioned. Downstream consumers
// (search indexers, SEO/redirect resolvers) subscribe through a Sink.
type Event struct {
	// Verb names the action, e.g. "move", "publish", "path_change".
	Verb string
	// ActorID identifies who triggered the action, when known.
	ActorID string
	// ObjectType and ObjectID reference the affected row.
	ObjectType string
	ObjectID   string
	// Metadata carries verb-specific context (old/new paths, statuses).
	Metadata map[string]any
}

// Sink receives emitted events. Implementations must be safe for concurrent
// use; errors are surfaced to the emitter caller but never block siblings.
type Sink interface {
	Record(ctx context.Context, event Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, event Event) error

func (f SinkFunc) Record(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Emitter fans events out to registered sinks. A nil or empty emitter is a
// no-op so services can emit unconditionally.
type Emitter struct {
	mu    sync.RWMutex
	sinks []Sink
}

// NewEmitter constructs an emitter with the supplied sinks.
func NewEmitter(sinks ...Sink) *Emitter {
	e := &Emitter{}
	for _, sink := range sinks {
		if sink != nil {
			e.sinks = append(e.sinks, sink)
		}
	}
	return e
}

// Register appends a sink.
func (e *Emitter) Register(sink Sink) {
	if e == nil || sink == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sinks = append(e.sinks, sink)
}

// Enabled reports whether any sink is registered.
func (e *Emitter) Enabled() bool {
	if e == nil {
		return false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.sinks) > 0
}

// Emit delivers the event to every sink. The first sink error is returned
// after all sinks have been invoked.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if e == nil {
		return nil
	}
	e.mu.RLock()
	sinks := make([]Sink, len(e.sinks))
	copy(sinks, e.sinks)
	e.mu.RUnlock()

	var firstErr error
	for _, sink := range sinks {
		if err := sink.Record(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
