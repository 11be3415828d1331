package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gainjar/config"
	"gainjar/core"
	"gainjar/explorer"
	nativecommon "gainjar/native/common"
	"gainjar/observability/logging"
	telemetry "gainjar/observability/otel"
	"gainjar/rpc"
	"gainjar/storage"
)

const (
	envOverride    = "GAINJAR_ENV"
	otlpHeadersEnv = "OTEL_EXPORTER_OTLP_HEADERS"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	env := cfg.Environment
	if v := strings.TrimSpace(os.Getenv(envOverride)); v != "" {
		env = v
	}
	logger := logging.Setup("gainjar", env, logging.FileOptions{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, env, logger); err != nil {
		logger.Error("gainjar stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("gainjar stopped")
}

func run(ctx context.Context, cfg *config.Config, env string, logger *slog.Logger) error {
	headers := cfg.Telemetry.Headers
	if raw := strings.TrimSpace(os.Getenv(otlpHeadersEnv)); raw != "" {
		headers = telemetry.ParseHeaders(raw)
	}
	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: "gainjar",
		Environment: env,
		ChainID:     cfg.NetworkName,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     headers,
		Metrics:     cfg.Telemetry.Metrics,
		Traces:      cfg.Telemetry.Traces,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Warn("telemetry shutdown", slog.Any("error", err))
		}
	}()

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	nodeCfg, err := nodeConfig(cfg, logger)
	if err != nil {
		return err
	}
	node, err := core.NewNode(db, nodeCfg)
	if err != nil {
		return fmt.Errorf("create node: %w", err)
	}

	serverCfg := rpc.ServerConfig{
		RateLimit: rpc.RateLimit{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			Burst:             cfg.RateLimit.Burst,
			TrustedProxies:    cfg.RateLimit.TrustedProxies,
		},
		Logger:  logger,
		Tracing: cfg.Telemetry.Traces,
	}
	if path := cfg.ResolvePath(cfg.Explorer.Path); path != "" {
		index, err := explorer.Open(path)
		if err != nil {
			return err
		}
		defer index.Close()
		node.AddEventSink(index)
		serverCfg.Events = index
		logger.Info("explorer index enabled", slog.String("path", path))
	}

	if addr := strings.TrimSpace(cfg.MetricsAddress); addr != "" {
		go serveMetrics(ctx, addr, logger)
	}

	server := rpc.NewServer(node, serverCfg)
	return server.Start(ctx, cfg.RPCAddress)
}

// nodeConfig translates the file configuration into node settings.
func nodeConfig(cfg *config.Config, logger *slog.Logger) (core.NodeConfig, error) {
	policy, err := cfg.TriggerPolicy()
	if err != nil {
		return core.NodeConfig{}, err
	}
	vault, err := cfg.VaultAddress()
	if err != nil {
		return core.NodeConfig{}, err
	}
	return core.NodeConfig{
		ChainID:       cfg.NetworkName,
		Vault:         vault,
		TriggerPolicy: policy,
		Pauses:        nativecommon.NewPauseSet(cfg.PausedModules...),
		Genesis:       cfg.Genesis.Alloc,
		Logger:        logger,
	}, nil
}

func serveMetrics(ctx context.Context, addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logger.Info("serving metrics", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server failed", slog.Any("error", err))
	}
}
