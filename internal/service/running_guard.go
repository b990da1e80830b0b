package service

import (
	"context"
	"sync"
)

// ExportedRunningGuard lets the external test package drive the guard directly.
type ExportedRunningGuard = runningGuard

// runningGuard tracks which harvest keys are in flight. RunAll holds the
// "all" key, so a cron tick that fires mid-run finds it taken and skips.
// The zero value is ready to use.
type runningGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
	wg      sync.WaitGroup
}

// TryLock claims key and reports whether it was free.
func (g *runningGuard) TryLock(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, held := g.running[key]; held {
		return false
	}
	if g.running == nil {
		g.running = make(map[string]struct{})
	}
	g.running[key] = struct{}{}
	g.wg.Add(1)
	return true
}

// Unlock gives key back. Calling it without a matching TryLock panics.
func (g *runningGuard) Unlock(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.running, key)
	g.wg.Done()
}

func (g *runningGuard) Running(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, held := g.running[key]
	return held
}

// WaitAll returns once nothing is in flight, or when ctx gives up first.
func (g *runningGuard) WaitAll(ctx context.Context) {
	idle := make(chan struct{})
	go func() {
		defer close(idle)
		g.wg.Wait()
	}()
	select {
	case <-idle:
	case <-ctx.Done():
	}
}
