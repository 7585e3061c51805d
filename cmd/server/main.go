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

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"namereg/internal/audit"
	contenthandler "namereg/internal/content/handler"
	contentservice "namereg/internal/content/service"
	contentstore "namereg/internal/content/store"
	jwttoken "namereg/internal/jwt_token"
	nameshandler "namereg/internal/names/handler"
	namesservice "namereg/internal/names/service"
	namesstore "namereg/internal/names/store"
	paymenthandler "namereg/internal/payment/handler"
	"namereg/internal/payment/ledger"
	paymetrics "namereg/internal/payment/metrics"
	paymentservice "namereg/internal/payment/service"
	paymentstore "namereg/internal/payment/store"
	"namereg/internal/platform/config"
	"namereg/internal/platform/httpserver"
	"namereg/internal/platform/kafka"
	"namereg/internal/platform/logger"
	"namereg/internal/platform/metrics"
	"namereg/internal/platform/postgres"
	platformredis "namereg/internal/platform/redis"
	rbachandler "namereg/internal/rbac/handler"
	rbacservice "namereg/internal/rbac/service"
	rbacstore "namereg/internal/rbac/store"
	registrationhandler "namereg/internal/registration/handler"
	regmetrics "namereg/internal/registration/metrics"
	registrationservice "namereg/internal/registration/service"
	seasonhandler "namereg/internal/season/handler"
	seasonmetrics "namereg/internal/season/metrics"
	seasonservice "namereg/internal/season/service"
	seasonstore "namereg/internal/season/store"
	subhandler "namereg/internal/subscription/handler"
	subservice "namereg/internal/subscription/service"
	substore "namereg/internal/subscription/store"
	httptransport "namereg/internal/transport/http"
)

// main wires stores, services, and transport, then runs the HTTP server and
// the audit worker until a shutdown signal arrives. Business logic lives in
// the internal services; everything here is assembly.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.New(ctx, cfg.Postgres)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}

	kafkaClient, err := kafka.New(ctx, cfg.Kafka)
	if err != nil {
		log.Error("kafka connection failed", "error", err)
		os.Exit(1)
	}

	// Store selection: Postgres when a DSN is configured, in-memory
	// otherwise. The consumed-reference set prefers Redis so multiple
	// instances share anti-replay state.
	var (
		roleStore     rbacservice.RoleStore
		seasonStore   seasonservice.SeasonStore
		nameStore     namesservice.NameStore
		subStore      subservice.SubscriptionStore
		contentStore  contentservice.ContentStore
		consumedStore paymentservice.ConsumedStore
		payStore      paymentservice.PaymentStore
	)
	if pool != nil {
		rolesPG := rbacstore.NewPostgres(pool)
		seasonsPG := seasonstore.NewPostgres(pool)
		namesPG := namesstore.NewPostgres(pool)
		subsPG := substore.NewPostgres(pool)
		contentPG := contentstore.NewPostgres(pool)
		for _, ensure := range []func(context.Context) error{
			rolesPG.EnsureSchema, seasonsPG.EnsureSchema, namesPG.EnsureSchema,
			subsPG.EnsureSchema, contentPG.EnsureSchema,
		} {
			if err := ensure(ctx); err != nil {
				log.Error("schema setup failed", "error", err)
				os.Exit(1)
			}
		}
		roleStore, seasonStore, nameStore, subStore, contentStore =
			rolesPG, seasonsPG, namesPG, subsPG, contentPG

		db, err := sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			log.Error("postgres payment store failed", "error", err)
			os.Exit(1)
		}
		paymentsPG := paymentstore.NewPostgres(db)
		if err := paymentsPG.EnsureSchema(ctx); err != nil {
			log.Error("payment schema setup failed", "error", err)
			os.Exit(1)
		}
		consumedStore, payStore = paymentsPG, paymentsPG
	} else {
		paymentsMem := paymentstore.NewInMemory()
		roleStore = rbacstore.NewInMemory()
		seasonStore = seasonstore.NewInMemory()
		nameStore = namesstore.NewInMemory()
		subStore = substore.NewInMemory()
		contentStore = contentstore.NewInMemory()
		consumedStore, payStore = paymentsMem, paymentsMem
	}
	if redisClient != nil {
		consumedStore = paymentstore.NewRedisConsumedSet(redisClient.Client)
	}

	httpMetrics := metrics.New()

	roles := rbacservice.New(roleStore, log)
	names := namesservice.New(nameStore, log)
	seasons := seasonservice.New(seasonStore, roles, names, seasonmetrics.New(), log)
	subs := subservice.New(subStore, roles, log)
	content := contentservice.New(contentStore, names, log)
	payments := paymentservice.New(consumedStore, payStore, log)

	ledgerClient := ledger.NewClient(cfg.Ledger.BaseURL, cfg.Ledger.QueryTimeout)
	verifier := paymentservice.NewVerifier(ledgerClient, cfg.Ledger.TreasuryAccount, paymetrics.New(), log)

	auditInbox := make(chan audit.Event, 256)
	auditStore := audit.NewMemoryStore()
	var auditSink audit.Sink
	if kafkaClient != nil {
		auditSink = audit.NewKafkaSink(kafkaClient.Client, cfg.Kafka.AuditTopic, log)
		defer kafkaClient.Close()
	}
	auditTrail := audit.NewPublisher(auditInbox, log)
	auditWorker := audit.NewWorker(auditStore, auditSink, auditInbox, log)

	registrations := registrationservice.New(
		roles, seasons, names, payments, verifier, subs, auditTrail, regmetrics.New(), log)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer)

	router := httptransport.NewRouter(log, httpMetrics, jwtService,
		rbachandler.New(roles, log),
		seasonhandler.New(seasons, log),
		nameshandler.New(names),
		paymenthandler.New(payments),
		subhandler.New(subs),
		contenthandler.New(content),
		registrationhandler.New(registrations, log),
		audit.NewHandler(auditStore, roles),
	)

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting namereg", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := auditWorker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}
