package service

import (
	"context"
	"log/slog"
	"sync"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter: progress notifications out of the service
// ─────────────────────────────────────────────────────────────

// Event names.
const (
	EventRoleCompleted = "harvest:role-completed"
	EventRunCompleted  = "harvest:run-completed"
)

// EventEmitter receives progress events from HarvestService.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// LogEmitter writes every event as a structured log line.
type LogEmitter struct {
	Logger *slog.Logger
}

func (e LogEmitter) Emit(ctx context.Context, event string, data any) {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.DebugContext(ctx, "event", "name", event, "data", data)
}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Named returns the recorded events with the given name.
func (m *MockEmitter) Named(event string) []EmittedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []EmittedEvent
	for _, e := range m.Events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}
