package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"

	"leads/internal/domain"
	"leads/internal/etl"
	"leads/internal/metrics"
)

// ── ODS Directory Source ────────────────────────────────────
// Pages through the NHS ODS organisation directory for one primary role.
//
// Loop: Requesting → Accumulating → (Requesting | Done), any failure → Aborted.

// DefaultODSURL is the public organisation collection endpoint.
const DefaultODSURL = "https://directory.spineservices.nhs.uk/ORD/2-0-0/organisations"

// ODSConfig configures the directory harvester.
type ODSConfig struct {
	BaseURL      string
	Timeout      time.Duration // per request
	PagePause    time.Duration // between successive pages
	MaxRetries   int           // extra attempts on network errors, 429 and 5xx
	RetryWait    time.Duration
	RetryMaxWait time.Duration

	// AlwaysSendOffset sends Offset=0 on the first page instead of omitting it.
	AlwaysSendOffset bool
}

func (c ODSConfig) withDefaults() ODSConfig {
	if c.BaseURL == "" {
		c.BaseURL = DefaultODSURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryWait <= 0 {
		c.RetryWait = 500 * time.Millisecond
	}
	if c.RetryMaxWait < c.RetryWait {
		c.RetryMaxWait = c.RetryWait
	}
	return c
}

// ODSSource implements etl.Source against the ODS directory.
type ODSSource struct {
	cfg     ODSConfig
	http    *resty.Client
	logger  *slog.Logger
	metrics *metrics.HarvestMetrics

	// wait blocks for the inter-page pause.
	wait func(ctx context.Context, d time.Duration) error
}

// NewODSSource builds a harvester. logger and m may be nil.
func NewODSSource(cfg ODSConfig, logger *slog.Logger, m *metrics.HarvestMetrics) *ODSSource {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("Accept", "application/json")
	client.SetLogger(restyLogger{logger: logger})
	client.
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(cfg.RetryMaxWait).
		AddRetryCondition(retryTransient).
		AddRetryHook(func(res *resty.Response, err error) {
			attrs := []any{"error", err}
			if res != nil && res.Request != nil {
				attrs = append(attrs, "status", res.StatusCode(), "attempt", res.Request.Attempt)
			}
			logger.Warn("retrying page request", attrs...)
		})

	return &ODSSource{
		cfg:     cfg,
		http:    client,
		logger:  logger,
		metrics: m,
		wait:    sleepContext,
	}
}

// retryTransient retries network errors, throttling and server errors.
// Client errors such as 406 are final.
func retryTransient(res *resty.Response, err error) bool {
	if res != nil && res.Request != nil && res.Request.Context().Err() != nil {
		return false
	}
	if err != nil {
		return true
	}
	if res == nil {
		return false
	}
	code := res.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// Harvest runs the paging loop for one role. It never returns nil records;
// a failed page ends the loop with whatever was accumulated before it.
func (s *ODSSource) Harvest(ctx context.Context, q domain.RoleQuery) etl.HarvestResult {
	result := etl.NewHarvestResult(q.RoleCode)
	log := s.logger.With("role", q.RoleCode)

	if q.PageSize <= 0 {
		result.State = etl.StateAborted
		result.Err = fmt.Errorf("page size must be positive, got %d", q.PageSize)
		log.Warn("invalid role query", "error", result.Err)
		return result
	}

	log.Info("fetching organisations", "page_size", q.PageSize)

	offset := 0
	var page []etl.Record
	for !result.State.Terminal() {
		switch result.State {
		case etl.StateRequesting:
			result.Offsets = append(result.Offsets, offset)
			recs, err := s.fetchPage(ctx, q, offset)
			if err != nil {
				log.Warn("page request failed, stopping harvest", "offset", offset, "error", err)
				result.State, result.Err = etl.StateAborted, err
				continue
			}
			page = recs
			result.State = etl.AfterPage(len(page))

		case etl.StateAccumulating:
			result.Records = append(result.Records, page...)
			log.Info("fetched page", "count", len(page), "total", len(result.Records))

			result.State = etl.AfterAccumulate(len(page), q.PageSize)
			if result.State == etl.StateRequesting {
				offset += q.PageSize
				if err := s.wait(ctx, s.cfg.PagePause); err != nil {
					log.Warn("harvest interrupted", "offset", offset, "error", err)
					result.State, result.Err = etl.StateAborted, err
				}
			}
		}
	}

	log.Info("harvest finished",
		"state", result.State.String(),
		"records", len(result.Records),
		"pages", result.Pages(),
	)
	return result
}

// pageBody is the part of a directory response the harvester reads.
type pageBody struct {
	Organisations []any `json:"Organisations"`
}

func (s *ODSSource) fetchPage(ctx context.Context, q domain.RoleQuery, offset int) ([]etl.Record, error) {
	start := time.Now()
	recs, err := s.doFetch(ctx, q, offset)

	outcome := metrics.PageOK
	switch {
	case err != nil:
		outcome = metrics.PageError
	case len(recs) == 0:
		outcome = metrics.PageEmpty
	}
	s.metrics.ObservePage(q.RoleCode, outcome, len(recs), time.Since(start).Seconds())
	return recs, err
}

func (s *ODSSource) doFetch(ctx context.Context, q domain.RoleQuery, offset int) ([]etl.Record, error) {
	status := q.Status
	if status == "" {
		status = domain.StatusActive
	}

	req := s.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"PrimaryRoleId": q.RoleCode,
			"Limit":         strconv.Itoa(q.PageSize),
			"Status":        status,
		})
	if offset > 0 || s.cfg.AlwaysSendOffset {
		req.SetQueryParam("Offset", strconv.Itoa(offset))
	}

	res, err := req.Get(s.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	if !res.IsSuccess() {
		if res.StatusCode() == http.StatusNotAcceptable {
			s.logger.Warn("directory rejected the request as not acceptable, check headers and params",
				"role", q.RoleCode, "offset", offset)
		}
		return nil, fmt.Errorf("http %d: %s", res.StatusCode(), truncate(res.String(), 200))
	}

	if total := res.Header().Get("X-Total-Count"); total != "" {
		s.logger.Debug("directory total", "role", q.RoleCode, "total", total)
	}

	var body pageBody
	if err := json.Unmarshal(res.Body(), &body); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	records := make([]etl.Record, 0, len(body.Organisations))
	for _, item := range body.Organisations {
		m, _ := item.(map[string]any)
		records = append(records, etl.Record{Data: m})
	}
	return records, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

// restyLogger routes resty's own diagnostics into slog.
type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.logger.Error(fmt.Sprintf(format, v...), "component", "http")
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.logger.Warn(fmt.Sprintf(format, v...), "component", "http")
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug(fmt.Sprintf(format, v...), "component", "http")
}
