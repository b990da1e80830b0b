package etl

import (
	"context"

	"leads/internal/domain"
)

// ── Source ──────────────────────────────────────────────────
// A Source harvests raw records for one role from an external directory.
// Implementations live in etl/sources/.

// Source is the interface every harvester must implement.
type Source interface {
	// Harvest pages through the upstream until exhaustion or failure.
	// Transport failures are absorbed into the result, never returned.
	Harvest(ctx context.Context, q domain.RoleQuery) HarvestResult
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func(ctx context.Context, q domain.RoleQuery) HarvestResult

func (f SourceFunc) Harvest(ctx context.Context, q domain.RoleQuery) HarvestResult { return f(ctx, q) }

// ── Paging state machine ───────────────────────────────────

// HarvestState is a state of the paging loop.
type HarvestState int

const (
	StateRequesting HarvestState = iota
	StateAccumulating
	StateDone
	StateAborted
)

func (s HarvestState) String() string {
	switch s {
	case StateRequesting:
		return "requesting"
	case StateAccumulating:
		return "accumulating"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether the loop stops in this state.
func (s HarvestState) Terminal() bool {
	return s == StateDone || s == StateAborted
}

// AfterPage decides where the loop goes once a page of n records arrived.
// An empty page is the normal end-of-pages signal.
func AfterPage(n int) HarvestState {
	if n == 0 {
		return StateDone
	}
	return StateAccumulating
}

// AfterAccumulate decides whether another page is requested.
// Only a full page continues; a short page ends the harvest.
func AfterAccumulate(n, pageSize int) HarvestState {
	if n == pageSize {
		return StateRequesting
	}
	return StateDone
}

// HarvestResult is everything collected for one role, in upstream order.
type HarvestResult struct {
	RoleCode string
	Records  []Record
	Offsets  []int // offset of every request issued, in order
	State    HarvestState
	Err      error // the absorbed failure when State is StateAborted
}

// NewHarvestResult returns an empty, non-nil result for a role.
func NewHarvestResult(roleCode string) HarvestResult {
	return HarvestResult{RoleCode: roleCode, Records: make([]Record, 0), State: StateRequesting}
}

// Pages is the number of requests issued.
func (r HarvestResult) Pages() int { return len(r.Offsets) }

// Aborted reports whether the harvest was cut short by a failure.
func (r HarvestResult) Aborted() bool { return r.State == StateAborted }
