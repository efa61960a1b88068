package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/event-seat-reservation/internal/clock"
	"github.com/iliyamo/event-seat-reservation/internal/config"
	"github.com/iliyamo/event-seat-reservation/internal/database"
	"github.com/iliyamo/event-seat-reservation/internal/handler"
	"github.com/iliyamo/event-seat-reservation/internal/middleware"
	"github.com/iliyamo/event-seat-reservation/internal/pkg/logger"
	"github.com/iliyamo/event-seat-reservation/internal/pkg/metrics"
	"github.com/iliyamo/event-seat-reservation/internal/queue"
	"github.com/iliyamo/event-seat-reservation/internal/repository"
	"github.com/iliyamo/event-seat-reservation/internal/router"
	"github.com/iliyamo/event-seat-reservation/internal/service"
)

func main() {
	cfg := config.Load()
	logger.Set(logger.New(cfg.Env, cfg.LogLevel))
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()
	if cfg.DBMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Fatal("database migration failed", zap.Error(err))
		}
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		logger.Warn("redis unavailable, rate limiting and catalog cache disabled", zap.String("addr", cfg.Redis.Addr))
	} else {
		defer rdb.Close()
	}

	m := metrics.New()
	clk := clock.NewSystem()
	txm := database.NewTxManager(db)

	seats := repository.NewSeatRepo(db)
	events := repository.NewEventRepo(db)
	categories := repository.NewCategoryRepo(db)
	reservations := repository.NewReservationRepo(db)
	payments := repository.NewPaymentRepo(db)

	var publisher service.Publisher
	if cfg.RabbitURL != "" {
		publisher = queue.NewPublisher(cfg.RabbitURL, cfg.ReservationQueue)
	}

	reserveSvc := service.NewReservationService(txm, seats, reservations, events, categories, publisher, clk, m)
	cancelSvc := service.NewCancellationService(txm, seats, reservations, publisher, clk, cfg.CancelCutoff, m)
	paymentSvc := service.NewPaymentService(txm, seats, reservations, payments, service.NewCardGateway(), clk, m)
	eventSvc := service.NewEventService(txm, events, categories, seats, clk)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.AuditConsumer && cfg.RabbitURL != "" {
		consumer := queue.NewAuditConsumer(cfg.RabbitURL, cfg.ReservationQueue, cfg.AuditLogDir)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("audit consumer stopped", zap.Error(err))
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.CustomHTTPErrorHandler
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	// ahead of RequestLogger so the recorded status is the final one
	e.Use(middleware.Prometheus(m))
	e.Use(middleware.RequestLogger())
	e.Use(echomw.Recover())

	purge := func(ctx context.Context) error { return middleware.PurgeCache(ctx, rdb, cfg.Cache.Prefix) }
	router.RegisterRoutes(e, db, cfg)
	router.RegisterEvents(e, handler.NewEventHandler(eventSvc, purge), cfg, rdb)
	router.RegisterReservations(e, handler.NewReservationHandler(reserveSvc, cancelSvc, paymentSvc, eventSvc), cfg, rdb)

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}
