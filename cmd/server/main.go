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
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/iliyamo/gym-membership/internal/config"
	"github.com/iliyamo/gym-membership/internal/database"
	"github.com/iliyamo/gym-membership/internal/jobs"
	"github.com/iliyamo/gym-membership/internal/logger"
	"github.com/iliyamo/gym-membership/internal/metrics"
	"github.com/iliyamo/gym-membership/internal/queue"
	"github.com/iliyamo/gym-membership/internal/repository"
	"github.com/iliyamo/gym-membership/internal/router"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Env)

	db, err := openDB(cfg)
	if err != nil {
		log.Error("open database", "driver", cfg.DBDriver, "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := database.Migrate(db, cfg.DBDriver); err != nil {
		log.Error("migrate database", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn("redis unavailable; caching and rate limiting disabled", "addr", cfg.Redis.Addr)
	} else {
		defer rdb.Close()
	}

	var events queue.Publisher = queue.NopPublisher{}
	if cfg.EventsEnabled {
		events = queue.NewAMQPPublisher(cfg.RabbitMQURL, log)
		if cfg.EventsConsumerEnabled {
			go queue.NewActivityConsumer(cfg.RabbitMQURL, cfg.LogDir, log).Run(ctx)
		}
	}

	var (
		m        *metrics.Metrics
		gatherer prometheus.Gatherer
	)
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
		gatherer = reg
	}

	(&jobs.MembershipExpiry{
		Repo:     repository.NewMembershipRepo(db),
		Interval: cfg.MembershipExpiryInterval,
		Location: cfg.Location,
		Metrics:  m,
		Log:      log,
	}).Start(ctx)
	(&jobs.TokenPrune{
		Repo:     repository.NewTokenRepo(db),
		Interval: 24 * time.Hour,
		Grace:    24 * time.Hour,
		Log:      log,
	}).Start(ctx)

	e := router.New(router.Deps{
		Cfg:      cfg,
		DB:       db,
		Redis:    rdb,
		Events:   events,
		Metrics:  m,
		Gatherer: gatherer,
		Log:      log,
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", "addr", addr, "env", cfg.Env, "driver", cfg.DBDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "err", err)
	}
}

func openDB(cfg config.Config) (*sql.DB, error) {
	if cfg.DBDriver == database.DriverSQLite {
		return database.OpenSQLite(cfg.SQLitePath)
	}
	return database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
}
