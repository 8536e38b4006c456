package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/boldcity/gymgate/internal/config"
	"github.com/boldcity/gymgate/internal/db"
	"github.com/boldcity/gymgate/internal/gym/service"
	"github.com/boldcity/gymgate/internal/gym/store/sqlite"
	"github.com/boldcity/gymgate/internal/httpapi"
	"github.com/boldcity/gymgate/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := log.New(os.Stdout, "gymgate-server ", log.LstdFlags|log.LUTC)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	sqlDB, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		logger.Fatalf("open db: %v", err)
	}
	defer sqlDB.Close()

	if cfg.Env == "dev" {
		if err := db.SeedDev(ctx, sqlDB, db.SeedDevOptions{KnownKiosks: cfg.KnownKiosks}); err != nil {
			logger.Fatalf("seed dev db: %v", err)
		}
	}

	writer := db.NewWorker(sqlDB)
	defer writer.Close()

	// Stores
	memberStore := sqlite.NewMemberStore(sqlDB, writer)
	subStore := sqlite.NewSubscriptionStore(sqlDB, writer)
	sessionStore := sqlite.NewSessionStore(sqlDB, writer)
	logStore := sqlite.NewScanLogStore(sqlDB, writer)
	kioskStore := sqlite.NewKioskStore(sqlDB, writer)
	heartbeatStore := sqlite.NewHeartbeatStore(sqlDB, writer)
	sequence := sqlite.NewSequence(writer, cfg.MemberIDPrefix)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// Services
	kioskRegistry := service.NewKioskRegistry(kioskStore)
	heartbeatSvc := service.NewHeartbeatService(heartbeatStore, kioskRegistry, m)
	accessSvc := service.NewAccessService(memberStore, subStore, sessionStore, sessionStore, logStore, m, logger)
	memberSvc := service.NewMemberService(memberStore, subStore, sessionStore, sequence, cfg.ExpiryWarnDays)
	subSvc := service.NewSubscriptionService(memberStore, subStore, subStore)
	reportSvc := service.NewReportService(logStore)
	debouncer := service.NewDebouncer(time.Duration(cfg.ScanDebounceMS) * time.Millisecond)

	pruner := service.NewHeartbeatPruner(heartbeatStore, service.PrunerConfig{
		RetentionDays: cfg.HeartbeatRetentionDays,
		IntervalHours: cfg.PruneIntervalHours,
	}, logger)
	pruner.Start(ctx)
	defer pruner.Stop()

	// HTTP
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:         logger,
		Addr:           cfg.HTTPAddr,
		Access:         accessSvc,
		Members:        memberSvc,
		Subscriptions:  subSvc,
		Reports:        reportSvc,
		Heartbeats:     heartbeatSvc,
		Debouncer:      debouncer,
		Sessions:       sessionStore,
		Logs:           logStore,
		Metrics:        m,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	go func() {
		logger.Printf("listening on %s", cfg.HTTPAddr)
		if err := srv.Start(); err != nil {
			logger.Printf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
