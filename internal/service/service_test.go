package service_test

import (
	"context"
	"testing"
	"time"

	"leads/internal/service"
)

// ─────────────────────────────────────────────────────────────
// runningGuard tests
// ─────────────────────────────────────────────────────────────

func TestRunningGuard_TryLock(t *testing.T) {
	var g service.ExportedRunningGuard

	if !g.TryLock("RO182") {
		t.Fatal("expected first TryLock to succeed")
	}
	if g.TryLock("RO182") {
		t.Fatal("expected second TryLock for same role to fail")
	}
	if !g.Running("RO182") {
		t.Fatal("expected role to be reported as running")
	}
	if !g.TryLock("RO172") {
		t.Fatal("expected TryLock for different role to succeed")
	}
	g.Unlock("RO182")
	g.Unlock("RO172")

	if g.Running("RO182") {
		t.Fatal("expected role to be released")
	}
	if !g.TryLock("RO182") {
		t.Fatal("expected TryLock to succeed after unlock")
	}
	g.Unlock("RO182")
}

func TestRunningGuard_WaitAll(t *testing.T) {
	var g service.ExportedRunningGuard

	if !g.TryLock("all") {
		t.Fatal("expected lock to succeed")
	}

	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		g.WaitAll(ctx)
		close(done)
	}()

	go func() {
		time.Sleep(20 * time.Millisecond)
		g.Unlock("all")
	}()

	select {
	case <-done:
		// success
	case <-time.After(1 * time.Second):
		t.Fatal("WaitAll timed out")
	}
}

// ─────────────────────────────────────────────────────────────
// MockEmitter tests
// ─────────────────────────────────────────────────────────────

func TestMockEmitter_RecordsEvents(t *testing.T) {
	m := &service.MockEmitter{}
	m.Emit(context.Background(), service.EventRoleCompleted, "RO182")
	m.Emit(context.Background(), service.EventRunCompleted, nil)
	m.Emit(context.Background(), service.EventRoleCompleted, "RO172")

	if len(m.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(m.Events))
	}
	roles := m.Named(service.EventRoleCompleted)
	if len(roles) != 2 || roles[1].Data != "RO172" {
		t.Fatalf("unexpected role events: %+v", roles)
	}
}

func TestLogEmitter_NilLogger(t *testing.T) {
	// Falls back to slog.Default without panicking.
	service.LogEmitter{}.Emit(context.Background(), service.EventRunCompleted, nil)
}
