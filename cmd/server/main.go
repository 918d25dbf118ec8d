package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	approvalhandler "timeclock/internal/approval/handler"
	approvalmetrics "timeclock/internal/approval/metrics"
	approvalsvc "timeclock/internal/approval/service"
	approvalstore "timeclock/internal/approval/store"
	"timeclock/internal/audit"
	auditmem "timeclock/internal/audit/store/memory"
	auditpg "timeclock/internal/audit/store/postgres"
	"timeclock/internal/device"
	devicehandler "timeclock/internal/device/handler"
	geofencehandler "timeclock/internal/geofence/handler"
	"timeclock/internal/geofence/registry"
	geofencestore "timeclock/internal/geofence/store"
	jwttoken "timeclock/internal/jwt_token"
	"timeclock/internal/notify"
	"timeclock/internal/platform/config"
	"timeclock/internal/platform/httpserver"
	"timeclock/internal/platform/logger"
	platformmetrics "timeclock/internal/platform/metrics"
	platformredis "timeclock/internal/platform/redis"
	"timeclock/internal/policy"
	"timeclock/internal/punch"
	punchhandler "timeclock/internal/punch/handler"
	punchmetrics "timeclock/internal/punch/metrics"
	httptransport "timeclock/internal/transport/http"
	"timeclock/internal/verification"
	verificationhandler "timeclock/internal/verification/handler"
	verificationmetrics "timeclock/internal/verification/metrics"
	"timeclock/internal/verification/provider"
	verificationsvc "timeclock/internal/verification/service"
	verificationstore "timeclock/internal/verification/store"
	workplacehandler "timeclock/internal/workplace/handler"
	workplacemetrics "timeclock/internal/workplace/metrics"
	workplacesvc "timeclock/internal/workplace/service"
	workplacestore "timeclock/internal/workplace/store"
	"timeclock/pkg/platform/middleware/ratelimit"
)

// main assembles storage, services, and the HTTP surface. Business rules live
// in the internal service packages; this file is wiring and lifecycle only.
func main() {
	cfg := config.FromEnv()
	pol := policy.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage. Postgres backs everything when configured; otherwise the
	// process runs fully in memory for development.
	var (
		zoneStore      geofencestore.ZoneStore
		sessionStore   verificationstore.SessionStore
		recordStore    workplacestore.RecordStore
		workplaceStore workplacestore.WorkplaceStore
		requestStore   approvalstore.RequestStore
		auditStore     audit.Store
		deviceStore    device.Store = device.NewMemoryStore()
	)

	if cfg.Postgres.URL != "" {
		db, err := sql.Open("postgres", cfg.Postgres.URL)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("ping postgres", "error", err)
			os.Exit(1)
		}

		pool, err := pgxpool.New(ctx, cfg.Postgres.URL)
		if err != nil {
			log.Error("open audit pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		zoneStore = geofencestore.NewPostgresZoneStore(db)
		sessionStore = verificationstore.NewPostgresSessionStore(db)
		recordStore = workplacestore.NewPostgresRecordStore(db)
		workplaceStore = workplacestore.NewPostgresWorkplaceStore(db)
		requestStore = approvalstore.NewPostgresRequestStore(db)
		auditStore = auditpg.New(pool)
	} else {
		log.Warn("POSTGRES_URL not set, using in-memory stores")
		zoneStore = geofencestore.NewInMemoryZoneStore()
		sessionStore = verificationstore.NewMemorySessionStore()
		recordStore = workplacestore.NewMemoryRecordStore()
		workplaceStore = workplacestore.NewMemoryWorkplaceStore()
		requestStore = approvalstore.NewMemoryRequestStore()
		auditStore = auditmem.New()
	}

	// Redis, when present, takes over session storage so capture state is
	// shared across instances without a database round trip per sample.
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		sessionStore = verificationstore.NewRedisSessionStore(redisClient)
	}

	// Notification pipeline.
	var sink notify.Sink = notify.NewMemorySink()
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := notify.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sink = kafkaSink
	} else {
		log.Warn("KAFKA_BROKERS not set, notifications stay in process")
	}
	dispatcher := notify.NewDispatcher(sink, notify.WithLogger(log))
	go func() {
		if err := dispatcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("notification dispatcher stopped", "error", err)
		}
	}()

	// Audit writes go through an inbox so request paths never wait on the
	// audit store.
	auditInbox := audit.NewInbox(auditStore, 1024)
	auditWorker := audit.NewWorker(auditStore, auditInbox.Chan())
	go func() {
		if err := auditWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()
	auditor := audit.NewPublisher(auditInbox)

	var verifyProvider verification.Provider = provider.Approving()
	if cfg.Provider.URL != "" {
		verifyProvider = provider.NewHTTPProvider(cfg.Provider.URL, cfg.Provider.APIKey, pol.ProviderTimeout)
	} else {
		log.Warn("VERIFY_PROVIDER_URL not set, approving every sample")
	}

	// Services.
	approvalService := approvalsvc.New(requestStore,
		approvalsvc.WithLogger(log),
		approvalsvc.WithAuditPublisher(auditor),
		approvalsvc.WithNotifier(dispatcher),
		approvalsvc.WithMetrics(approvalmetrics.New()),
	)
	workplaceService := workplacesvc.New(recordStore, workplaceStore, pol,
		workplacesvc.WithLogger(log),
		workplacesvc.WithAuditPublisher(auditor),
		workplacesvc.WithApprovals(approvalService),
		workplacesvc.WithMetrics(workplacemetrics.New()),
	)
	verificationService := verificationsvc.New(sessionStore, verifyProvider, pol,
		verificationsvc.WithLogger(log),
		verificationsvc.WithAuditPublisher(auditor),
		verificationsvc.WithNotifier(dispatcher),
		verificationsvc.WithMetrics(verificationmetrics.New()),
	)
	punchService := punch.New(zoneStore, verificationService, workplaceService,
		punch.WithLogger(log),
		punch.WithNotifier(dispatcher),
		punch.WithMetrics(punchmetrics.New()),
	)
	deviceService := device.New(deviceStore,
		device.WithLogger(log),
		device.WithAuditPublisher(auditor),
	)
	zoneService := registry.New(zoneStore,
		registry.WithLogger(log),
		registry.WithAuditPublisher(auditor),
	)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "timeclock", "timeclock")

	router := httptransport.NewRouter(httptransport.Dependencies{
		Logger:     log,
		JWTService: jwttoken.NewJWTServiceAdapter(jwtService),
		AdminToken: cfg.AdminToken,
		Metrics:    platformmetrics.New(),
		TokenExchangeLimit: ratelimit.Middleware(
			ratelimit.NewLimiter(20, time.Minute), log, ratelimit.KeyByIP),
		PunchLimit: ratelimit.Middleware(
			ratelimit.NewLimiter(120, time.Minute), log, ratelimit.KeyByUser),
		Punch:        punchhandler.New(punchService, log),
		Verification: verificationhandler.New(verificationService, log),
		Workplace:    workplacehandler.New(workplaceService, log),
		Device:       devicehandler.New(deviceService, jwtService, log),
		Approval:     approvalhandler.New(approvalService, log),
		Geofence:     geofencehandler.New(zoneService, log),
	})

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("timeclock listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
