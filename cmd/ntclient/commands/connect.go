package commands

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/nt2go/ntclient/internal/logger"
	"github.com/nt2go/ntclient/internal/telemetry"
	"github.com/nt2go/ntclient/pkg/config"
	"github.com/nt2go/ntclient/pkg/metrics"
	ntprometheus "github.com/nt2go/ntclient/pkg/metrics/prometheus"
	"github.com/nt2go/ntclient/pkg/networktables"
	"github.com/nt2go/ntclient/pkg/networktables/store"
)

var (
	connectAddress string
	connectTimeout time.Duration
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect to a NetworkTables server and report the resulting state",
	Long: `connect loads configuration, dials a NetworkTables 2.0 server, and
polls the connection state until it settles at Connected or Error (or the
timeout elapses), printing one status line.

This is a diagnostic command, not an interactive client: it exercises
construction, configuration, logging, and telemetry wiring end-to-end and
then exits.`,
	RunE: runConnect,
}

func init() {
	connectCmd.Flags().StringVar(&connectAddress, "address", "", "server address (overrides config)")
	connectCmd.Flags().DurationVar(&connectTimeout, "timeout", 5*time.Second, "how long to wait for the connection to settle")
}

func runConnect(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if connectAddress != "" {
		cfg.Address = connectAddress
	}

	if err := logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format}); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	ctx := cmd.Context()
	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		SampleRate:  cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() { _ = telemetryShutdown(ctx) }()

	var storeMetrics metrics.StoreMetrics
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		storeMetrics = ntprometheus.NewPrometheusMetrics(reg)

		metricsSrv := &http.Server{
			Addr:    cfg.Metrics.ListenAddress,
			Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.ErrorCtx(ctx, "metrics server failed", logger.Err(err))
			}
		}()
		logger.InfoCtx(ctx, "metrics enabled", logger.Address(cfg.Metrics.ListenAddress))
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	client, err := networktables.New(cfg.Address,
		networktables.WithMetrics(storeMetrics),
		networktables.WithTelemetry(cfg.Telemetry.Enabled),
		networktables.WithKeepAlive(cfg.KeepAlive),
		networktables.WithTickInterval(cfg.TickInterval),
	)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", cfg.Address, err)
	}
	defer func() { _ = client.Close() }()

	deadline := time.Now().Add(connectTimeout)
	for time.Now().Before(deadline) {
		switch client.State() {
		case store.Connected:
			fmt.Printf("connected: %s (conn %s)\n", cfg.Address, client.ID())
			return nil
		case store.Error:
			return fmt.Errorf("connection entered error state: %s", client.State())
		}
		time.Sleep(10 * time.Millisecond)
	}

	return fmt.Errorf("timed out after %s waiting to connect to %s (state: %s)", connectTimeout, cfg.Address, client.State())
}
