package etl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leads/internal/domain"
)

// ── SyncJob ────────────────────────────────────────────────
// Orchestrates: source.Harvest → extractor → destination.Write.

// SyncJob holds the configuration for one role's harvest.
type SyncJob struct {
	Role     domain.HarvestRole `json:"role"`
	PageSize int                `json:"pageSize"`
}

// Query builds the immutable query for the job.
func (j *SyncJob) Query() domain.RoleQuery {
	return domain.NewRoleQuery(j.Role.Code, j.PageSize)
}

// Sync statuses.
const (
	StatusSuccess = "success"
	StatusEmpty   = "empty" // nothing harvested, no artifact written
	StatusError   = "error"
)

// SyncResult is the outcome of running a sync job.
type SyncResult struct {
	RoleCode    string        `json:"roleCode"`
	Target      string        `json:"target"`
	Status      string        `json:"status"`
	Pages       int           `json:"pages"`
	RowsRead    int           `json:"rowsRead"`
	RowsWritten int           `json:"rowsWritten"`
	Aborted     bool          `json:"aborted"`
	HarvestErr  string        `json:"harvestError,omitempty"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`
}

// ── Engine ─────────────────────────────────────────────────

// Engine runs sync jobs against a source and a destination.
type Engine struct {
	Source    Source
	Extractor Extractor // nil means ExtractLead
	Dest      Destination
}

// RunSync executes a sync job end-to-end.
// The only error returned is a destination failure; an aborted harvest is
// still exported with whatever it collected, and an empty one is reported
// through StatusEmpty.
func (e *Engine) RunSync(ctx context.Context, job *SyncJob) (*SyncResult, error) {
	start := time.Now()
	result := &SyncResult{RoleCode: job.Role.Code, Target: job.Role.FileName}

	// 1. Harvest raw records.
	harvest := e.Source.Harvest(ctx, job.Query())
	result.Pages = harvest.Pages()
	result.RowsRead = len(harvest.Records)
	result.Aborted = harvest.Aborted()
	if harvest.Err != nil {
		result.HarvestErr = harvest.Err.Error()
	}

	// 2. Flatten.
	leads := ExtractAll(harvest.Records, e.Extractor)

	// 3. Write to destination. Cancellation ends the harvest, not the export.
	written, err := e.Dest.Write(context.WithoutCancel(ctx), job.Role.FileName, LeadSchema(), leads)
	result.Duration = time.Since(start)
	switch {
	case errors.Is(err, ErrNoData):
		result.Status = StatusEmpty
		return result, nil
	case err != nil:
		result.Status = StatusError
		result.Error = fmt.Sprintf("write: %s", err)
		return result, fmt.Errorf("write %s: %w", job.Role.FileName, err)
	}

	result.Status = StatusSuccess
	result.RowsWritten = written
	return result, nil
}
