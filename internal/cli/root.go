// Package cli provides the command-line interface for the lead harvester.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"leads/internal/config"
	"leads/internal/domain"
	"leads/internal/etl"
	"leads/internal/etl/sources"
	"leads/internal/metrics"
	"leads/internal/service"
)

// Version is set at build time.
var Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "leads",
	Short: "Harvest NHS ODS organisations into lead CSV files",
	Long: `Leads pages through the NHS ODS organisation directory for a fixed set of
primary roles (community pharmacies, independent clinics) and writes one
CSV file of flattened organisation rows per role.

Configuration comes from LEADS_* environment variables or a .env file.`,
	Version:       Version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runHarvest,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// app bundles everything a command needs.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	svc      *service.HarvestService
	cleanup  func() error
}

func newApp() *app {
	cfg := config.Load()
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)

	reg := prometheus.NewRegistry()
	m := metrics.NewHarvestMetrics(reg)

	engine := &etl.Engine{
		Source: sources.NewODSSource(cfg.ODS(), logger, m),
		Dest:   &etl.CSVWriter{Dir: cfg.OutputDir},
	}
	svc := service.NewHarvestService(engine, service.Options{
		Roles:    domain.DefaultRoles,
		PageSize: cfg.PageSize,
		Emitter:  service.LogEmitter{Logger: logger},
		Logger:   logger,
		Metrics:  m,
	})

	return &app{cfg: cfg, logger: logger, registry: reg, svc: svc, cleanup: cleanup}
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runHarvest(cmd *cobra.Command, args []string) error {
	a := newApp()
	defer a.cleanup()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "--- Starting lead generation (NHS ODS) ---")

	summary, err := a.svc.RunAll(ctx)
	if summary != nil {
		report(out, a.svc.Roles(), summary)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nDone! Files written to %s\n", a.cfg.OutputDir)
	return nil
}

// report prints one line per role run.
func report(w io.Writer, roles []domain.HarvestRole, summary *service.RunSummary) {
	types := make(map[string]string, len(roles))
	for _, r := range roles {
		types[r.Code] = r.Type
	}

	for _, res := range summary.Results {
		label := fmt.Sprintf("%s (%s)", res.RoleCode, types[res.RoleCode])
		var line string
		switch res.Status {
		case etl.StatusEmpty:
			line = fmt.Sprintf("%-18s no data to save for %s", label, res.Target)
		case etl.StatusError:
			fmt.Fprintf(w, "%-18s failed: %s\n", label, res.Error)
			continue
		default:
			line = fmt.Sprintf("%-18s saved %d records to %s", label, res.RowsWritten, res.Target)
		}
		if res.Aborted {
			line += " (incomplete: " + res.HarvestErr + ")"
		}
		fmt.Fprintln(w, line)
	}
}
