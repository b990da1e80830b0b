package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"leads/internal/service"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the harvest on a cron schedule",
	Long: `Run the full harvest on the schedule in LEADS_SCHEDULE (cron syntax,
default @daily) until interrupted. A run is skipped if the previous one
is still going. When LEADS_METRICS_ADDR is set, Prometheus metrics are
served on /metrics at that address.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

// recentRuns is how many run log entries watch prints when it stops.
const recentRuns = 10

func runWatch(cmd *cobra.Command, args []string) error {
	a := newApp()
	defer a.cleanup()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	var srv *http.Server
	if a.cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
		srv = &http.Server{Addr: a.cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server failed", "error", err)
			}
		}()
		a.logger.Info("serving metrics", "addr", a.cfg.MetricsAddr)
	}

	if err := a.svc.StartSchedule(ctx, a.cfg.Schedule); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Harvesting on schedule %q, Ctrl+C to stop\n", a.cfg.Schedule)

	<-ctx.Done()
	a.logger.Info("shutting down")
	a.svc.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.svc.WaitRunning(shutdownCtx)
	if srv != nil {
		_ = srv.Shutdown(shutdownCtx)
	}

	printRunLogs(cmd.OutOrStdout(), a.svc.ListRunLogs("", recentRuns))
	return nil
}

// printRunLogs writes one line per run log entry, newest first.
func printRunLogs(w io.Writer, logs []service.RunLog) {
	if len(logs) == 0 {
		fmt.Fprintln(w, "No harvests ran.")
		return
	}
	fmt.Fprintln(w, "Recent harvests:")
	for _, l := range logs {
		line := fmt.Sprintf("  %s  %-6s %-8s %d rows to %s",
			l.FinishedAt.Format(time.RFC3339), l.RoleCode, l.Status, l.RowsWritten, l.Target)
		if l.Error != "" {
			line += " (" + l.Error + ")"
		}
		fmt.Fprintln(w, line)
	}
}
