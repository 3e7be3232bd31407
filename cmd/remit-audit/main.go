package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"swiftremit/config"
	"swiftremit/core"
	"swiftremit/observability/logging"
	remitotel "swiftremit/observability/otel"
	"swiftremit/storage"
)

const serviceName = "remit-audit"

func main() {
	configPath := flag.String("config", "./config.toml", "Path to configuration file")
	doBootstrap := flag.Bool("bootstrap", false, "Initialise an empty contract from the [remit] section")
	serve := flag.Bool("serve", false, "Serve /report and /metrics on AuditListen after printing the report")
	flag.Parse()

	if err := run(*configPath, *doBootstrap, *serve); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run(configPath string, doBootstrap, serve bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	params, err := cfg.Remit.Parameters()
	if err != nil {
		return fmt.Errorf("parse remit parameters: %w", err)
	}
	contract, err := cfg.Contract()
	if err != nil {
		return fmt.Errorf("parse contract address: %w", err)
	}

	var writer io.Writer = os.Stderr
	if cfg.Logging.File != "" {
		file := logging.RotatingFile(logging.FileOptions{
			Path:       cfg.Logging.File,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
		})
		defer file.Close()
		writer = file
	}
	logger := logging.SetupWithOptions(serviceName, cfg.Environment, logging.Options{
		Level:  logging.ParseLevel(cfg.Logging.Level),
		Writer: writer,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := remitotel.Init(ctx, remitotel.Config{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Contract:    cfg.ContractAddress,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     remitotel.ParseHeaders(cfg.Telemetry.Headers),
		Metrics:     cfg.Telemetry.Metrics,
		Traces:      cfg.Telemetry.Traces,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown", slog.String("error", err.Error()))
		}
	}()

	db, err := storage.Open(cfg.Backend, cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	host, err := core.NewHost(db, core.WithLogger(logger), core.WithContractAddress(contract))
	if err != nil {
		db.Close()
		return fmt.Errorf("open host: %w", err)
	}
	defer host.Close()

	if doBootstrap {
		if err := bootstrap(ctx, host, params); err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
		logger.Info("contract bootstrapped", slog.String("component", "audit"))
	}

	report, err := buildReport(host, cfg, params)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}
	output, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	fmt.Println(string(output))

	if !serve {
		return nil
	}
	if cfg.AuditListen == "" {
		return errors.New("serve requires AuditListen")
	}
	server := &http.Server{
		Addr:              cfg.AuditListen,
		Handler:           newRouter(host, cfg, params, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("audit server listening", slog.String("component", "audit"), slog.String("addr", cfg.AuditListen))
		errCh <- server.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
