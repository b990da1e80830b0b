package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"leads/internal/domain"
	"leads/internal/etl"
	"leads/internal/metrics"
)

// ─────────────────────────────────────────────────────────────
// Harvest Service: runs every configured role, one after another
// ─────────────────────────────────────────────────────────────

// ErrAlreadyRunning is returned when a full run is requested while one is in progress.
var ErrAlreadyRunning = errors.New("harvest already running")

const (
	runAllKey   = "all"
	maxRunLogs  = 50
	defaultPage = 100
)

// RunLog is a historical record of one role run.
type RunLog struct {
	ID          string    `json:"id"`
	RunID       string    `json:"runId"`
	RoleCode    string    `json:"roleCode"`
	Target      string    `json:"target"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt"`
	Status      string    `json:"status"`
	Pages       int       `json:"pages"`
	RowsRead    int       `json:"rowsRead"`
	RowsWritten int       `json:"rowsWritten"`
	Aborted     bool      `json:"aborted"`
	Error       string    `json:"error,omitempty"`
}

// RunSummary is emitted once a full run finishes.
type RunSummary struct {
	RunID       string            `json:"runId"`
	Results     []*etl.SyncResult `json:"results"`
	RowsWritten int               `json:"rowsWritten"`
	Duration    time.Duration     `json:"duration"`
}

// Options configures a HarvestService. Zero values are usable.
type Options struct {
	Roles    []domain.HarvestRole // default domain.DefaultRoles
	PageSize int                  // default 100
	Emitter  EventEmitter
	Logger   *slog.Logger
	Metrics  *metrics.HarvestMetrics
}

// HarvestService runs sync jobs for a fixed list of roles.
type HarvestService struct {
	engine   *etl.Engine
	roles    []domain.HarvestRole
	pageSize int
	emitter  EventEmitter
	logger   *slog.Logger
	metrics  *metrics.HarvestMetrics
	running  runningGuard

	mu   sync.Mutex
	logs []RunLog

	cronSched *cron.Cron
}

// NewHarvestService creates a HarvestService ready for use.
func NewHarvestService(engine *etl.Engine, opts Options) *HarvestService {
	s := &HarvestService{
		engine:   engine,
		roles:    opts.Roles,
		pageSize: opts.PageSize,
		emitter:  opts.Emitter,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
	if len(s.roles) == 0 {
		s.roles = domain.DefaultRoles
	}
	if s.pageSize <= 0 {
		s.pageSize = defaultPage
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.emitter == nil {
		s.emitter = LogEmitter{Logger: s.logger}
	}
	return s
}

// Roles returns the roles a full run covers, in order.
func (s *HarvestService) Roles() []domain.HarvestRole {
	return append([]domain.HarvestRole(nil), s.roles...)
}

// ── Run ────────────────────────────────────────────────────

// RunAll harvests every role in order. Each role finishes before the next
// starts. A failed harvest only truncates that role; a failed export stops
// the run and is returned.
func (s *HarvestService) RunAll(ctx context.Context) (*RunSummary, error) {
	if !s.running.TryLock(runAllKey) {
		return nil, ErrAlreadyRunning
	}
	defer s.running.Unlock(runAllKey)

	start := time.Now()
	summary := &RunSummary{RunID: uuid.New().String()}
	log := s.logger.With("run_id", summary.RunID)
	log.Info("starting lead harvest", "roles", len(s.roles))

	for _, role := range s.roles {
		result, err := s.runRole(ctx, summary.RunID, role)
		if result != nil {
			summary.Results = append(summary.Results, result)
			summary.RowsWritten += result.RowsWritten
		}
		if err != nil {
			summary.Duration = time.Since(start)
			log.Error("lead harvest failed", "role", role.Code, "error", err)
			return summary, err
		}
	}

	summary.Duration = time.Since(start)
	log.Info("lead harvest done", "rows_written", summary.RowsWritten, "duration", summary.Duration)
	s.emitter.Emit(ctx, EventRunCompleted, summary)
	return summary, nil
}

func (s *HarvestService) runRole(ctx context.Context, runID string, role domain.HarvestRole) (*etl.SyncResult, error) {
	job := &etl.SyncJob{Role: role, PageSize: s.pageSize}
	log := s.logger.With("run_id", runID, "role", role.Code)

	started := time.Now()
	result, runErr := s.engine.RunSync(ctx, job)

	entry := RunLog{
		ID:          uuid.New().String(),
		RunID:       runID,
		RoleCode:    role.Code,
		Target:      role.FileName,
		StartedAt:   started,
		FinishedAt:  time.Now(),
		Status:      result.Status,
		Pages:       result.Pages,
		RowsRead:    result.RowsRead,
		RowsWritten: result.RowsWritten,
		Aborted:     result.Aborted,
	}
	switch {
	case runErr != nil:
		entry.Error = runErr.Error()
	case result.HarvestErr != "":
		entry.Error = result.HarvestErr
	}
	s.appendLog(entry)
	s.metrics.ObserveSync(role.Code, result.Status, result.RowsWritten)

	switch result.Status {
	case etl.StatusEmpty:
		log.Warn("no data to save", "target", role.FileName)
	case etl.StatusSuccess:
		log.Info("saved leads", "target", role.FileName, "rows", result.RowsWritten, "aborted", result.Aborted)
	}

	s.emitter.Emit(ctx, EventRoleCompleted, result)
	return result, runErr
}

// ── Run logs ───────────────────────────────────────────────

func (s *HarvestService) appendLog(entry RunLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxRunLogs {
		s.logs = s.logs[len(s.logs)-maxRunLogs:]
	}
}

// ListRunLogs returns the most recent run logs, newest first.
// An empty roleCode matches every role.
func (s *HarvestService) ListRunLogs(roleCode string, limit int) []RunLog {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []RunLog
	for i := len(s.logs) - 1; i >= 0; i-- {
		if roleCode != "" && s.logs[i].RoleCode != roleCode {
			continue
		}
		out = append(out, s.logs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// ── Schedule ───────────────────────────────────────────────

// StartSchedule runs RunAll on the cron expression until Stop is called.
// A tick that lands while the previous run is still going is skipped.
func (s *HarvestService) StartSchedule(ctx context.Context, expr string) error {
	s.stopSchedule()

	c := cron.New()
	_, err := c.AddFunc(expr, func() {
		if _, err := s.RunAll(ctx); err != nil {
			if errors.Is(err, ErrAlreadyRunning) {
				s.logger.Warn("harvest cron: previous run still in progress, skipping")
				return
			}
			s.logger.Error("harvest cron: run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	c.Start()
	s.cronSched = c
	s.logger.Info("harvest cron: scheduled", "expr", expr)
	return nil
}

// WaitRunning blocks until all running harvests finish or ctx is cancelled.
// Used for graceful shutdown.
func (s *HarvestService) WaitRunning(ctx context.Context) {
	s.running.WaitAll(ctx)
}

// Stop tears down the scheduler.
func (s *HarvestService) Stop() {
	s.stopSchedule()
}

func (s *HarvestService) stopSchedule() {
	if s.cronSched != nil {
		s.cronSched.Stop()
		s.cronSched = nil
	}
}
