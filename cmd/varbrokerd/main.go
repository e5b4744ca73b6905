// Command varbrokerd runs the variable registry and notification engine
// behind a WebSocket gateway.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"

	"github.com/adred-codev/varbroker/internal/audit"
	"github.com/adred-codev/varbroker/internal/config"
	"github.com/adred-codev/varbroker/internal/logging"
	"github.com/adred-codev/varbroker/internal/metrics"
	"github.com/adred-codev/varbroker/internal/ratelimit"
	"github.com/adred-codev/varbroker/internal/registry"
	"github.com/adred-codev/varbroker/internal/relay"
	"github.com/adred-codev/varbroker/internal/serverinfo"
	"github.com/adred-codev/varbroker/internal/transport/wsgate"
)

func main() {
	cfg, secrets, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Development)

	var auditSink *audit.Sink
	if cfg.Audit.Enabled {
		// Audit records are never sampled: every AUDIT write gets its line.
		zapCfg := zap.NewProductionConfig()
		zapCfg.Sampling = nil
		zapLogger, err := zapCfg.Build()
		if err != nil {
			logger.Fatal().Err(err).Msg("audit logger init failed")
		}
		defer zapLogger.Sync() //nolint:errcheck
		auditSink, err = audit.NewSink(zapLogger, secrets.KafkaBrokers, "varbroker.audit")
		if err != nil {
			logger.Fatal().Err(err).Msg("audit sink init failed")
		}
		defer auditSink.Close()
	}

	var relayImpl registry.Relay
	if cfg.Relay.Enabled {
		nr, err := relay.NewNATSRelay(secrets.NATSURL, "varbroker.queue.")
		if err != nil {
			logger.Fatal().Err(err).Msg("relay init failed")
		}
		defer nr.Close()
		relayImpl = nr
	}

	sessions := registry.NewSessionTable(cfg.Server.WorkBufferBytes)

	// reg is forward-declared so the metrics registry's gauge funcs and the
	// registry's own signal-dropped counter can close over each other.
	var reg *registry.Registry
	metricsRegistry := metrics.NewRegistry(
		func() float64 {
			if reg == nil {
				return 0
			}
			return float64(reg.BlockedCount())
		},
		func() float64 {
			if reg == nil {
				return 0
			}
			return float64(reg.VariableCount())
		},
	)

	reg = registry.NewRegistry(registry.Config{
		MaxVariables: cfg.Registry.MaxVariables,
		Sessions:     sessions,
		Relay:        relayImpl,
		Audit: func(e registry.AuditEntry) {
			if auditSink != nil {
				auditSink.Record(e)
			}
		},
		OnSignalDropped: metricsRegistry.SignalsDropped.Inc,
	})

	dispatcher := registry.NewDispatcher(reg, sessions, metricsRegistry)
	limiters := ratelimit.NewFactory(ratelimit.Config{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := wsgate.NewServer(addr, dispatcher, sessions, limiters, metricsRegistry, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("transport start failed")
	}

	var metricsHTTPErr chan error
	if cfg.Metrics.Enabled {
		metricsHTTPErr = make(chan error, 1)
		go func() {
			metricsHTTPErr <- runMetricsServer(ctx, cfg, metricsRegistry)
		}()
	}

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")
	server.Stop()
	dispatcher.Close()
	if metricsHTTPErr != nil {
		<-metricsHTTPErr
	}
}

func runMetricsServer(ctx context.Context, cfg config.Config, m *metrics.Registry) error {
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Endpoint, m.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/serverinfo", func(w http.ResponseWriter, r *http.Request) {
		snap, err := serverinfo.Collect(r.Context(), 200*time.Millisecond)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(snap)
	})

	httpServer := &http.Server{
		Addr:         cfg.Metrics.ListenAddr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}
