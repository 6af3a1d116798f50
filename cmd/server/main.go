package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	authadapters "leadbook/internal/auth/adapters"
	authservice "leadbook/internal/auth/service"
	userstore "leadbook/internal/auth/store/user"
	buyerservice "leadbook/internal/buyer/service"
	buyerstore "leadbook/internal/buyer/store"
	httpapi "leadbook/internal/http"
	jwttoken "leadbook/internal/jwt_token"
	"leadbook/internal/platform/config"
	"leadbook/internal/platform/database"
	"leadbook/internal/platform/httpserver"
	"leadbook/internal/platform/kafka"
	"leadbook/internal/platform/logger"
	"leadbook/internal/platform/metrics"
	platformredis "leadbook/internal/platform/redis"
	ratelimitmw "leadbook/internal/ratelimit/middleware"
	"leadbook/internal/ratelimit/store/bucket"
)

// main wires dependencies from the environment and serves until SIGINT/SIGTERM.
func main() {
	cfg := config.Load()
	log := logger.New(cfg.Log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

type stores struct {
	db     *gorm.DB
	buyers buyerservice.Store
	users  authservice.UserStore
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	st, err := openStores(cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(st.db) }()

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	buyerOpts := []buyerservice.Option{
		buyerservice.WithLogger(log),
		buyerservice.WithMetrics(m),
		buyerservice.WithOwnerDirectory(authadapters.NewOwnerDirectory(st.users)),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := kafka.NewHistoryPublisher(ctx, cfg.Kafka, log)
		if err != nil {
			return err
		}
		defer publisher.Close()
		buyerOpts = append(buyerOpts, buyerservice.WithPublisher(publisher))
		log.Info("publishing buyer history", "topic", cfg.Kafka.HistoryTopic)
	}
	buyers, err := buyerservice.New(st.buyers, buyerOpts...)
	if err != nil {
		return err
	}

	tokens := jwttoken.NewJWTService(cfg.Session.SigningKey, cfg.Session.Issuer)
	auth, err := authservice.New(st.users, tokens, cfg.Session.TTL, authservice.WithLogger(log))
	if err != nil {
		return err
	}

	router := httpapi.NewRouter(cfg, httpapi.Dependencies{
		Logger:   log,
		Gatherer: reg,
		Metrics:  m,
		Buyers:   buyers,
		Auth:     auth,
		Tokens:   jwttoken.NewSessionValidator(tokens),
		Limiter:  newLimiter(redisClient, log),
		Health:   healthCheck(st.db, redisClient),
	})

	log.Info("starting leadbook", "addr", cfg.Server.Addr, "database", cfg.Database.Driver)
	return httpserver.New(cfg.Server, router, log).Run(ctx)
}

func openStores(cfg config.Database, log *slog.Logger) (*stores, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if db == nil {
		log.Warn("using in-memory storage; data is lost on restart")
		return &stores{buyers: buyerstore.NewInMemory(), users: userstore.New()}, nil
	}
	if cfg.AutoMigrate {
		if err := migrate(db); err != nil {
			_ = database.Close(db)
			return nil, err
		}
	}
	log.Info("database connected", "driver", cfg.Driver, "url", database.Redact(cfg.URL))
	return &stores{db: db, buyers: buyerstore.NewGorm(db), users: userstore.NewGorm(db)}, nil
}

func migrate(db *gorm.DB) error {
	if err := userstore.AutoMigrate(db); err != nil {
		return err
	}
	return buyerstore.AutoMigrate(db)
}

// newLimiter prefers the shared Redis store and keeps an in-memory store as
// fallback for Redis outages.
func newLimiter(rc *platformredis.Client, log *slog.Logger) ratelimitmw.RateLimiter {
	memory := bucket.NewInMemoryBucketStore()
	if rc == nil {
		return memory
	}
	return ratelimitmw.NewLimiter(bucket.NewRedisBucketStore(rc.Client), memory, log)
}

func healthCheck(db *gorm.DB, rc *platformredis.Client) func(r *http.Request) map[string]string {
	return func(r *http.Request) map[string]string {
		ctx := r.Context()
		failed := map[string]string{}
		if db != nil {
			if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
				failed["database"] = "unreachable"
			}
		}
		if rc != nil && rc.Health(ctx) != nil {
			failed["redis"] = "unreachable"
		}
		return failed
	}
}
