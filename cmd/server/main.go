package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"trustgate/internal/enforcement/audit"
	"trustgate/internal/enforcement/handler"
	"trustgate/internal/enforcement/killswitch"
	"trustgate/internal/enforcement/metrics"
	"trustgate/internal/enforcement/outbox"
	"trustgate/internal/enforcement/rules"
	"trustgate/internal/enforcement/service"
	"trustgate/internal/enforcement/settings"
	"trustgate/internal/enforcement/tokens"
	"trustgate/internal/enforcement/workers/cleanup"
	"trustgate/internal/enforcement/workers/relay"
	jwttoken "trustgate/internal/jwt_token"
	"trustgate/internal/platform/config"
	"trustgate/internal/platform/database"
	"trustgate/internal/platform/health"
	"trustgate/internal/platform/kafka"
	"trustgate/internal/platform/kafka/producer"
	"trustgate/internal/platform/logger"
	"trustgate/internal/platform/redis"
	"trustgate/internal/platform/tracer"
	httptransport "trustgate/internal/transport/http"
	request "trustgate/pkg/platform/middleware/request"
)

const (
	shutdownTimeout   = 10 * time.Second
	poolStatsInterval = 15 * time.Second
)

// infra holds the optional backing services selected from the environment.
type infra struct {
	db       *database.Pool
	redis    *redis.Client
	producer producer.Publisher
}

func (i *infra) close(log *slog.Logger) {
	if i.producer != nil {
		if err := i.producer.Close(); err != nil {
			log.Warn("failed to close kafka producer", "error", err)
		}
	}
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			log.Warn("failed to close redis client", "error", err)
		}
	}
	if i.db != nil {
		if err := i.db.Close(); err != nil {
			log.Warn("failed to close database", "error", err)
		}
	}
}

// stores groups the persistence backends of each enforcement component.
// outbox is set when audit entries are relayed from Postgres to Kafka.
type stores struct {
	settings   settings.Store
	rules      rules.Store
	tokens     tokens.Store
	killSwitch killswitch.Store
	audit      audit.Store
	outbox     *outbox.PostgresStore
}

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("initializing trustgate",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"database", cfg.Database.URL != "",
		"redis", cfg.Redis.URL != "",
		"kafka", cfg.Kafka.Brokers != "",
	)

	infra, err := buildInfra(cfg, log)
	if err != nil {
		return err
	}
	defer infra.close(log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	enforcementMetrics := metrics.New(reg)

	st := selectStores(infra)

	auditOpts := []audit.Option{
		audit.WithMetrics(enforcementMetrics),
		audit.WithMaxLimit(cfg.Enforcement.AuditQueryMaxLimit),
		audit.WithLogger(log),
	}
	// Without Postgres there is no outbox, so entries are published directly.
	if infra.producer != nil && st.outbox == nil {
		auditOpts = append(auditOpts, audit.WithPublisher(infra.producer, cfg.Kafka.AuditTopic))
	}
	auditLog := audit.New(st.audit, auditOpts...)

	vault := tokens.NewVault(st.tokens,
		tokens.WithTTL(cfg.Enforcement.ConfirmationTokenTTL),
		tokens.WithLogger(log),
	)

	svc := service.New(
		settings.New(st.settings, settings.WithLogger(log)),
		rules.NewEngine(st.rules, rules.WithLogger(log)),
		vault,
		killswitch.New(st.killSwitch, killswitch.WithLogger(log)),
		auditLog,
		service.WithMetrics(enforcementMetrics),
		service.WithTracer(tracer.NewOTel()),
		service.WithLogger(log),
	)

	healthHandler := health.New(cfg.Environment)
	healthHandler.RegisterCheck("audit", auditLog.Check)
	if infra.db != nil {
		healthHandler.RegisterCheck("database", infra.db.Health)
	}
	if infra.redis != nil {
		healthHandler.RegisterCheck("redis", infra.redis.Health)
	}
	if cfg.Kafka.Brokers != "" {
		healthHandler.RegisterCheck("kafka", kafka.NewHealthChecker(cfg.Kafka.Brokers).Check)
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, time.Hour)
	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:         log,
		Enforcement:    handler.New(svc, log),
		Validator:      jwttoken.NewJWTServiceAdapter(jwtService),
		Health:         healthHandler,
		Metrics:        request.NewMetrics(reg),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		AdminToken:     cfg.AdminToken,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	cleanupWorker := cleanup.New(vault,
		cleanup.WithSchedule(cfg.Enforcement.TokenCleanupSchedule),
		cleanup.WithMetrics(enforcementMetrics),
		cleanup.WithLogger(log),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := cleanupWorker.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	if st.outbox != nil {
		auditRelay := relay.New(st.outbox, infra.producer,
			relay.WithTopic(cfg.Kafka.AuditTopic),
			relay.WithMetrics(enforcementMetrics),
			relay.WithLogger(log),
		)
		g.Go(func() error {
			if err := auditRelay.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	if infra.redis != nil {
		g.Go(func() error {
			ticker := time.NewTicker(poolStatsInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					infra.redis.RecordPoolStats()
				}
			}
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// buildInfra connects to every backing service that has configuration.
func buildInfra(cfg config.Server, log *slog.Logger) (*infra, error) {
	out := &infra{}

	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	out.db = db

	rdb, err := redis.New(cfg.Redis)
	if err != nil {
		out.close(log)
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	out.redis = rdb

	if cfg.Kafka.Brokers != "" {
		p, err := producer.New(producer.DefaultConfig(cfg.Kafka.Brokers), log)
		if err != nil {
			out.close(log)
			return nil, fmt.Errorf("create kafka producer: %w", err)
		}
		out.producer = p
	}
	return out, nil
}

// selectStores prefers Postgres when configured. Confirmation tokens move to
// Redis when it is available since they are short-lived.
func selectStores(i *infra) stores {
	st := stores{
		settings:   settings.NewInMemoryStore(),
		rules:      rules.NewInMemoryStore(),
		tokens:     tokens.NewInMemoryStore(),
		killSwitch: killswitch.NewInMemoryStore(),
		audit:      audit.NewInMemoryStore(),
	}
	if i.db != nil {
		db := i.db.DB()
		st.settings = settings.NewPostgres(db)
		st.rules = rules.NewPostgres(db)
		st.tokens = tokens.NewPostgres(db)
		st.killSwitch = killswitch.NewPostgres(db)
		if i.producer != nil {
			st.outbox = outbox.NewPostgres(db)
			st.audit = audit.NewPostgres(db, audit.WithOutbox(st.outbox))
		} else {
			st.audit = audit.NewPostgres(db)
		}
	}
	if i.redis != nil {
		st.tokens = tokens.NewRedis(i.redis.Client, tokens.DefaultRetention)
	}
	return st
}
