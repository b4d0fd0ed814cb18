package memory

import (
	"context"
	"sync"

	"tillbook/internal/audit"
)

// Emitter buffers events in memory. Used by tests to assert on the trail.
type Emitter struct {
	mu     sync.Mutex
	events []audit.Event
}

func New() *Emitter {
	return &Emitter{}
}

func (e *Emitter) Emit(ctx context.Context, event audit.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return nil
}

// Events returns a snapshot of everything emitted so far.
func (e *Emitter) Events() []audit.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]audit.Event, len(e.events))
	copy(out, e.events)
	return out
}
