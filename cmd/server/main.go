package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	audithandler "samved/internal/audit/handler"
	auditservice "samved/internal/audit/service"
	httpapi "samved/internal/http"
	identityhandler "samved/internal/identity/handler"
	identitymetrics "samved/internal/identity/metrics"
	identityservice "samved/internal/identity/service"
	identitystore "samved/internal/identity/store"
	institutehandler "samved/internal/institute/handler"
	instituteservice "samved/internal/institute/service"
	institutestore "samved/internal/institute/store"
	jwttoken "samved/internal/jwt_token"
	notifyhandler "samved/internal/notify/handler"
	"samved/internal/notify/mailer"
	notifymetrics "samved/internal/notify/metrics"
	"samved/internal/notify/outbox"
	notifyservice "samved/internal/notify/service"
	notifystore "samved/internal/notify/store"
	notifyworker "samved/internal/notify/worker"
	"samved/internal/platform/config"
	"samved/internal/platform/httpserver"
	"samved/internal/platform/kafka"
	kafkaconsumer "samved/internal/platform/kafka/consumer"
	"samved/internal/platform/logger"
	"samved/internal/platform/metrics"
	"samved/internal/platform/postgres"
	platformredis "samved/internal/platform/redis"
	promotionhandler "samved/internal/promotion/handler"
	"samved/internal/promotion/lock"
	promotionmetrics "samved/internal/promotion/metrics"
	promotionservice "samved/internal/promotion/service"
	ratelimitmw "samved/internal/ratelimit/middleware"
	ratelimitstore "samved/internal/ratelimit/store"
	registrationhandler "samved/internal/registration/handler"
	registrationmetrics "samved/internal/registration/metrics"
	registrationservice "samved/internal/registration/service"
	registrationstore "samved/internal/registration/store"
	teamhandler "samved/internal/team/handler"
	teammetrics "samved/internal/team/metrics"
	teamservice "samved/internal/team/service"
	teamstore "samved/internal/team/store"
	"samved/pkg/platform/audit"
	auditconsumer "samved/pkg/platform/audit/consumer"
	"samved/pkg/platform/audit/publisher"
	auditmemory "samved/pkg/platform/audit/store/memory"
	auditpg "samved/pkg/platform/audit/store/postgres"
	auditworker "samved/pkg/platform/audit/worker"
	txcontext "samved/pkg/platform/tx"
)

// Each backend satisfies the narrow interfaces of every service that uses it.
type (
	registrationBackend interface {
		registrationservice.Store
		promotionservice.RegistrationStore
	}
	identityBackend interface {
		identityservice.Store
		teamservice.IdentityStore
		promotionservice.IdentityStore
	}
	teamBackend interface {
		teamservice.Store
		promotionservice.TeamStore
	}
)

// stores groups the persistence backends chosen at startup.
type stores struct {
	registrations registrationBackend
	identities    identityBackend
	teams         teamBackend
	institutes    instituteservice.Store
	notifications notifyservice.Store
	audit         audit.Store
}

// main wires dependencies and runs the HTTP server alongside the background
// workers until a signal arrives. Business logic lives in internal services.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	checks := map[string]httpapi.HealthCheck{}
	g, gctx := errgroup.WithContext(ctx)

	var db *sql.DB
	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		if cfg.Database.Migrate {
			if err := postgres.Migrate(db); err != nil {
				return err
			}
		}
		checks["postgres"] = db.PingContext
		log.Info("using postgres storage")
	} else {
		log.Warn("DATABASE_URL not set, using in-memory storage")
	}
	st := newStores(db, len(cfg.Kafka.Brokers) == 0)

	// Audit: Postgres outbox relayed to Kafka when brokers are configured,
	// otherwise materialized inline.
	auditPublisher := publisher.NewPublisher(st.audit,
		publisher.WithAsyncBuffer(1024),
		publisher.WithLogger(log),
	)
	defer auditPublisher.Close()

	if len(cfg.Kafka.Brokers) > 0 {
		if err := startAuditPipeline(gctx, g, cfg.Kafka, db, log, checks); err != nil {
			return err
		}
	}

	// Notifications: in-process outbox drained by a background worker.
	notifyMetrics := notifymetrics.New()
	notifications := outbox.New(cfg.Notify.BufferSize,
		outbox.WithLogger(log),
		outbox.WithMetrics(notifyMetrics),
	)
	var m mailer.Mailer = mailer.NewLogMailer(log)
	if cfg.SMTP.Host != "" {
		m = mailer.NewSMTP(cfg.SMTP, mailer.WithLogger(log), mailer.WithMetrics(notifyMetrics))
	}
	notifySvc := notifyservice.New(st.notifications, m,
		notifyservice.WithLogger(log),
		notifyservice.WithMetrics(notifyMetrics),
	)
	notifyWorker := notifyworker.New(notifications, notifySvc,
		notifyworker.WithBatchSize(cfg.Notify.BatchSize),
		notifyworker.WithFlushInterval(cfg.Notify.FlushInterval),
		notifyworker.WithLogger(log),
	)
	g.Go(func() error { return notifyWorker.Run(gctx) })

	institutes := instituteservice.New(st.institutes, instituteservice.WithLogger(log))

	identitySvc := identityservice.New(st.identities,
		identityservice.WithLogger(log),
		identityservice.WithAuditPublisher(auditPublisher),
		identityservice.WithMetrics(identitymetrics.New()),
		identityservice.WithInstituteSyncer(institutes),
	)

	registrationSvc := registrationservice.New(st.registrations, st.identities, st.teams, notifications,
		registrationservice.WithLogger(log),
		registrationservice.WithAuditPublisher(auditPublisher),
		registrationservice.WithMetrics(registrationmetrics.New()),
	)

	teamOpts := []teamservice.Option{
		teamservice.WithLogger(log),
		teamservice.WithAuditPublisher(auditPublisher),
		teamservice.WithMetrics(teammetrics.New()),
	}
	if db != nil {
		teamOpts = append(teamOpts, teamservice.WithTxRunner(newTeamPostgresTx(db)))
	}
	teamSvc := teamservice.New(st.teams, st.identities, notifications, teamOpts...)

	promotionOpts := []promotionservice.Option{
		promotionservice.WithLogger(log),
		promotionservice.WithAuditPublisher(auditPublisher),
		promotionservice.WithMetrics(promotionmetrics.New()),
		promotionservice.WithInstituteSyncer(institutes),
	}
	var limiter ratelimitmw.Limiter = ratelimitstore.NewInMemory()
	if cfg.Redis.URL != "" {
		redisClient, err := platformredis.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		checks["redis"] = redisClient.Health
		promotionOpts = append(promotionOpts,
			promotionservice.WithLocker(lock.NewRedis(redisClient.Client), cfg.Promotion.LockTTL))
		limiter = ratelimitstore.NewRedis(redisClient.Client)
		log.Info("using redis promotion lock and rate limiter")
	} else {
		promotionOpts = append(promotionOpts,
			promotionservice.WithLocker(lock.NewInMemory(), cfg.Promotion.LockTTL))
	}
	promotionSvc := promotionservice.New(st.registrations, st.identities, st.teams, notifications, promotionOpts...)

	var submitLimit func(http.Handler) http.Handler
	if !cfg.RateLimit.Disabled {
		submitLimit = ratelimitmw.New(limiter, cfg.RateLimit.SubmitLimit, cfg.RateLimit.SubmitWindow, log).RateLimit("submit")
	}

	jwtService := jwttoken.NewJWTService(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience)
	router := httpapi.NewRouter(httpapi.Deps{
		Logger:       log,
		Metrics:      metrics.New(),
		Validator:    jwttoken.NewJWTServiceAdapter(jwtService),
		Registration: registrationhandler.New(registrationSvc, log),
		Promotion:    promotionhandler.New(promotionSvc, log),
		Team:         teamhandler.New(teamSvc, log),
		Identity:     identityhandler.New(identitySvc, log),
		Notify:       notifyhandler.New(notifySvc, log),
		Audit:        audithandler.New(auditservice.New(st.audit), log),
		Institute:    institutehandler.New(institutes, log),
		HealthChecks: checks,
		SubmitLimit:  submitLimit,
	})

	srv := httpserver.New(cfg.Addr, cfg.HTTP, router)
	g.Go(func() error {
		log.Info("starting samved", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.ShutdownTTL)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newStores picks memory or Postgres backends. Without a Kafka relay the
// Postgres audit store materializes events inline.
func newStores(db *sql.DB, inlineAudit bool) stores {
	if db == nil {
		return stores{
			registrations: registrationstore.NewInMemory(),
			identities:    identitystore.NewInMemory(),
			teams:         teamstore.NewInMemory(),
			institutes:    institutestore.NewInMemory(),
			notifications: notifystore.NewInMemory(),
			audit:         auditmemory.NewInMemoryStore(),
		}
	}
	var auditOpts []auditpg.Option
	if inlineAudit {
		auditOpts = append(auditOpts, auditpg.WithInlineMaterialize())
	}
	return stores{
		registrations: registrationstore.NewPostgres(db),
		identities:    identitystore.NewPostgres(db),
		teams:         teamstore.NewPostgres(db),
		institutes:    institutestore.NewPostgres(db),
		notifications: notifystore.NewPostgres(db),
		audit:         auditpg.New(db, auditOpts...),
	}
}

// startAuditPipeline relays the audit outbox to Kafka and materializes the
// topic back into the queryable audit table.
func startAuditPipeline(ctx context.Context, g *errgroup.Group, cfg config.KafkaConfig, db *sql.DB, log *slog.Logger, checks map[string]httpapi.HealthCheck) error {
	if err := kafka.EnsureTopics(ctx, cfg.Brokers, 3, 1, cfg.AuditTopic); err != nil {
		return err
	}
	producer, err := kafka.NewProducer(cfg.Brokers)
	if err != nil {
		return err
	}
	checks["kafka"] = producer.Health

	outboxStore := auditpg.New(db)
	relay := auditworker.NewRelay(outboxStore, producer, cfg.AuditTopic,
		auditworker.WithInterval(cfg.PollInterval),
		auditworker.WithBatchSize(cfg.BatchSize),
		auditworker.WithTxRunner(func(ctx context.Context, fn func(ctx context.Context) error) error {
			return txcontext.Run(ctx, db, fn)
		}),
		auditworker.WithLogger(log),
	)
	g.Go(func() error {
		defer producer.Close()
		return relay.Run(ctx)
	})

	consumer, err := kafkaconsumer.New(cfg.Brokers, cfg.ConsumerGroup, log, cfg.AuditTopic)
	if err != nil {
		return err
	}
	materializer := auditconsumer.NewMaterializer(outboxStore, log)
	g.Go(func() error {
		defer consumer.Close()
		return consumer.Run(ctx, materializer)
	})
	log.Info("audit pipeline started", "topic", cfg.AuditTopic)
	return nil
}
