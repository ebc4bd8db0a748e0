// Command server runs the custodial spending registry. main wires the
// backends selected by configuration, mounts the HTTP transport, and owns
// the process lifecycle. Business logic lives in the internal services.
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

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"fiscus/internal/audit"
	auditmemory "fiscus/internal/audit/store/memory"
	auditpostgres "fiscus/internal/audit/store/postgres"
	authorityhandler "fiscus/internal/authority/handler"
	authoritymetrics "fiscus/internal/authority/metrics"
	authorityservice "fiscus/internal/authority/service"
	"fiscus/internal/jwtauth"
	ledgercache "fiscus/internal/ledger/cache"
	ledgerservice "fiscus/internal/ledger/service"
	ledgermemory "fiscus/internal/ledger/store/memory"
	ledgerpostgres "fiscus/internal/ledger/store/postgres"
	"fiscus/internal/platform/config"
	"fiscus/internal/platform/httpserver"
	"fiscus/internal/platform/kafka"
	"fiscus/internal/platform/logger"
	platformmetrics "fiscus/internal/platform/metrics"
	"fiscus/internal/platform/middleware"
	"fiscus/internal/platform/postgres"
	platformredis "fiscus/internal/platform/redis"
	requestmemory "fiscus/internal/request/store/memory"
	requestpostgres "fiscus/internal/request/store/postgres"
	requestservice "fiscus/internal/request/service"
	spendingmemory "fiscus/internal/spending/store/memory"
	spendingpostgres "fiscus/internal/spending/store/postgres"
	spendingservice "fiscus/internal/spending/service"
	"fiscus/pkg/domain"
	"fiscus/pkg/platform/httputil"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	var (
		ledgerStore   ledgerservice.Store
		spendingStore spendingservice.Store
		requestStore  requestservice.Store
		auditStore    audit.Store
		outbox        audit.OutboxSource
		registryTx    authorityservice.Tx
		db            *sql.DB
	)
	if cfg.PostgresURL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			log.Error("schema migration failed", "error", err)
			os.Exit(1)
		}
		ledgerStore = ledgerpostgres.New(db)
		spendingStore = spendingpostgres.New(db)
		requestStore = requestpostgres.New(db)
		pgAudit := auditpostgres.New(db)
		auditStore = pgAudit
		outbox = pgAudit
		registryTx = authorityservice.NewPostgresTx(db)
		log.Info("using postgres backend")
	} else {
		ledgerStore = ledgermemory.New()
		spendingStore = spendingmemory.New()
		requestStore = requestmemory.New()
		auditStore = auditmemory.New()
		registryTx = authorityservice.NewMemoryTx()
		log.Info("using in-memory backend; state will not survive restarts")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	var entityCache *ledgercache.EntityCache
	if redisClient != nil {
		defer redisClient.Close()
		entityCache = ledgercache.New(redisClient.Client, cfg.EntityCacheTTL)
		log.Info("entity snapshot cache enabled", "ttl", cfg.EntityCacheTTL.String())
	}

	producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaAuditTopic)
	if err != nil {
		log.Error("kafka connection failed", "error", err)
		os.Exit(1)
	}
	if producer != nil {
		defer producer.Close()
	}

	ledger := ledgerservice.New(ledgerStore)
	spending := spendingservice.New(spendingStore, ledger)
	requests := requestservice.New(requestStore, ledger)
	auditPublisher := audit.NewPublisher(auditStore)

	authority := authorityservice.New(
		domain.Caller(cfg.AuthoritySubject),
		registryTx,
		ledger,
		spending,
		requests,
		auditPublisher,
		entityCache,
		authoritymetrics.New(),
		log,
	)

	tokens := jwtauth.New(cfg.JWTSigningKey)
	handler := authorityhandler.New(authority, log, tokens)

	httpMetrics := platformmetrics.New()
	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(log))
	router.Use(middleware.Timeout(30 * time.Second))
	router.Use(middleware.ContentTypeJSON)
	router.Use(middleware.Latency(httpMetrics))
	handler.Register(router)
	router.Get("/healthz", healthHandler(db, redisClient))
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	group, groupCtx := errgroup.WithContext(runCtx)

	group.Go(func() error {
		log.Info("registry listening", "addr", cfg.Addr,
			"authority", cfg.AuthoritySubject)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if producer != nil && outbox != nil {
		relay := audit.NewRelay(outbox, producer, log)
		group.Go(func() error {
			log.Info("audit relay running", "topic", cfg.KafkaAuditTopic)
			err := relay.Run(groupCtx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

// healthHandler reports liveness plus the health of optional backends.
func healthHandler(db *sql.DB, redisClient *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				status["status"] = "degraded"
				status["postgres"] = err.Error()
			}
		}
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				status["status"] = "degraded"
				status["redis"] = err.Error()
			}
		}
		code := http.StatusOK
		if status["status"] != "ok" {
			code = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, code, status)
	}
}
