// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"veriseal/internal/audit"
	certhandler "veriseal/internal/certificate/handler"
	certmetrics "veriseal/internal/certificate/metrics"
	"veriseal/internal/certificate/irn"
	certservice "veriseal/internal/certificate/service"
	"veriseal/internal/certificate/store"
	"veriseal/internal/issuer"
	issuerhandler "veriseal/internal/issuer/handler"
	"veriseal/internal/jwtauth"
	"veriseal/internal/platform/config"
	"veriseal/internal/platform/httpserver"
	"veriseal/internal/platform/logger"
	platformmetrics "veriseal/internal/platform/metrics"
	"veriseal/internal/platform/postgres"
	"veriseal/internal/platform/redis"
	httptransport "veriseal/internal/transport/http"
	"veriseal/internal/verify"
	verifyhandler "veriseal/internal/verify/handler"
	verifymetrics "veriseal/internal/verify/metrics"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]httptransport.HealthChecker{}

	// Certificate persistence: Postgres when configured, memory otherwise.
	var certStore store.Store
	db, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err.Error())
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
		if err := store.Migrate(ctx, db); err != nil {
			log.Error("postgres migration failed", "error", err.Error())
			os.Exit(1)
		}
		certStore = store.NewPostgresStore(db)
		checks["postgres"] = db.PingContext
		log.Info("certificate store: postgres")
	} else {
		certStore = store.NewInMemoryStore()
		checks["postgres"] = nil
		log.Warn("certificate store: in-memory, data will not survive restarts")
	}

	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		certStore = store.NewCachedStore(certStore, redisClient.Client, cfg.CacheTTL, log)
		checks["redis"] = redisClient.Health
		log.Info("record cache: redis", "ttl", cfg.CacheTTL.String())
	} else {
		checks["redis"] = nil
	}

	// Audit trail: Kafka when configured, memory otherwise.
	var sink audit.Sink
	if cfg.KafkaBrokers != "" {
		kafkaSink, err := audit.NewKafkaSink(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("kafka connection failed", "error", err.Error())
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sink = kafkaSink
		log.Info("audit sink: kafka", "topic", cfg.AuditTopic)
	} else {
		sink = audit.NewInMemoryStore()
		log.Warn("audit sink: in-memory, events will not survive restarts")
	}
	publisher := audit.NewPublisher(256, log)
	worker := audit.NewWorker(sink, publisher.Inbox(), log)

	issuerStore := issuer.NewInMemoryStore()
	issuerService := issuer.New(issuerStore, log)
	if cfg.SeedIssuerID != "" && cfg.SeedIssuerSecret != "" {
		if err := issuerService.Register(ctx, cfg.SeedIssuerID, cfg.SeedIssuerName, cfg.SeedIssuerSecret); err != nil {
			log.Error("seed issuer registration failed", "error", err.Error())
			os.Exit(1)
		}
	}

	jwtService := jwtauth.New(cfg.JWTSigningKey, "veriseal", "veriseal-api")

	certService := certservice.New(certStore, irn.New(),
		certservice.WithLogger(log),
		certservice.WithAuditPublisher(publisher),
		certservice.WithMetrics(certmetrics.New()),
	)
	verifyService := verify.New(certStore,
		verify.WithLogger(log),
		verify.WithAuditPublisher(publisher),
		verify.WithMetrics(verifymetrics.New()),
	)

	router := httptransport.NewRouter(log, platformmetrics.NewHTTP(), checks,
		certhandler.New(certService, log, jwtService),
		verifyhandler.New(verifyService, log),
		issuerhandler.New(issuerService, jwtService, cfg.TokenTTL, log),
	)

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting veriseal", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err.Error())
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
