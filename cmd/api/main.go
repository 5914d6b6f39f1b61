package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baharkarakas/points-ledger/internal/api"
	"github.com/baharkarakas/points-ledger/internal/archive"
	"github.com/baharkarakas/points-ledger/internal/auth"
	"github.com/baharkarakas/points-ledger/internal/config"
	"github.com/baharkarakas/points-ledger/internal/db"
	"github.com/baharkarakas/points-ledger/internal/events"
	"github.com/baharkarakas/points-ledger/internal/ledger"
	"github.com/baharkarakas/points-ledger/internal/logger"
	"github.com/baharkarakas/points-ledger/internal/metrics"
	"github.com/baharkarakas/points-ledger/internal/middleware"
	"github.com/baharkarakas/points-ledger/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wp := worker.NewPool(4)

	var sinks []ledger.Sink

	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("db connect", "err", err)
			os.Exit(1)
		}
		defer pool.Close()
		arc, err := archive.New(ctx, pool, wp)
		if err != nil {
			log.Error("archive init", "err", err)
			os.Exit(1)
		}
		sinks = append(sinks, arc)
		log.Info("history archive enabled")
	}

	if cfg.AMQPURL != "" {
		pub, err := events.New(cfg.AMQPURL, cfg.AMQPExchange, wp)
		if err != nil {
			log.Error("amqp connect", "err", err)
			os.Exit(1)
		}
		defer pub.Close()
		sinks = append(sinks, pub)
		log.Info("event publishing enabled", "exchange", cfg.AMQPExchange)
	}

	// registered after the sink connections so queued archive and event
	// writes drain before those connections close
	defer wp.Stop()

	history, err := ledger.NewHistoryLog()
	if err != nil {
		log.Error("history log", "err", err)
		os.Exit(1)
	}
	svc := ledger.NewService(ledger.NewBalanceStore(), history, sinks...)

	var authMW *middleware.AuthMiddleware
	if cfg.JWTSecret != "" {
		tm := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, 15*time.Minute)
		authMW = middleware.NewAuthMiddleware(tm, cfg.Env)
	}

	metrics.Init()
	r := api.NewRouter(cfg, svc, authMW)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
