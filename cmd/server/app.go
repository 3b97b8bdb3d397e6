package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/cinema-screenings/internal/config"
	"github.com/iliyamo/cinema-screenings/internal/database"
	"github.com/iliyamo/cinema-screenings/internal/fulfillment"
	"github.com/iliyamo/cinema-screenings/internal/handler"
	"github.com/iliyamo/cinema-screenings/internal/queue"
	"github.com/iliyamo/cinema-screenings/internal/repository"
	"github.com/iliyamo/cinema-screenings/internal/router"
	"github.com/iliyamo/cinema-screenings/internal/service"
)

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Env == "prod" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

type stores struct {
	movies     service.MovieStore
	rooms      service.RoomStore
	screenings service.ScreeningStore
	db         *sql.DB
}

func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	if cfg.StoreDriver == "memory" {
		m := repository.NewMemoryStore()
		return &stores{movies: m, rooms: m, screenings: m}, nil
	}
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &stores{
		movies:     repository.NewMovieRepo(db),
		rooms:      repository.NewRoomRepo(db),
		screenings: repository.NewScreeningRepo(db),
		db:         db,
	}, nil
}

func runServe(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signalContext(parent)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	var pinger handler.Pinger
	if st.db != nil {
		defer st.db.Close()
		pinger = st.db
	}

	pipeline := fulfillment.NewPipeline(
		fulfillment.NewPDFRenderer(cfg.CinemaName),
		fulfillment.NewSMTPMailer(fulfillment.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}),
		cfg.FulfillmentTimeout,
	)
	opts := []service.ReservationOption{
		service.WithCurrency(cfg.Currency),
		service.WithLocation(cfg.Location),
	}
	if cfg.EventsEnabled {
		opts = append(opts,
			service.WithEvents(queue.NewPublisher(cfg.AMQPURL)),
			service.WithPublishTimeout(cfg.PublishTimeout),
		)
	}

	reservations := service.NewReservationService(st.screenings, service.FixedPrices(cfg.Prices), pipeline,
		logger.With("component", "reservation"), opts...)
	h := handler.New(
		service.NewCatalogService(st.movies, st.rooms, logger.With("component", "catalog")),
		service.NewScheduleService(st.screenings, logger.With("component", "schedule")),
		reservations,
		cfg.Location,
	)

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		logger.Warn("redis unavailable; response cache and rate limiting disabled", "addr", cfg.Redis.Addr)
	} else {
		defer rdb.Close()
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()
	e.Use(echomw.RequestID())
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	router.RegisterRoutes(e, h, router.Options{
		Redis:     rdb,
		Cache:     cfg.Cache,
		RateLimit: cfg.RateLimit,
		Health:    pinger,
	})

	addr := ":" + cfg.Port
	logger.Info("listening", "addr", addr, "env", cfg.Env, "store", cfg.StoreDriver)

	errc := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.FulfillmentTimeout+5*time.Second)
	defer cancel()
	logger.Info("shutting down")
	err = e.Shutdown(shutdownCtx)
	if werr := reservations.Wait(shutdownCtx); werr != nil {
		logger.Warn("pending reservation events dropped", "err", werr)
	}
	return err
}

func runMigrate(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !strings.EqualFold(cfg.StoreDriver, "mysql") {
		slog.Warn("STORE_DRIVER is not mysql; migrating the configured database anyway", "driver", cfg.StoreDriver)
	}
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	ctx, stop := signalContext(parent)
	defer stop()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}
	slog.Info("schema up to date", "database", cfg.DBName)
	return nil
}

func runConsume(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx, stop := signalContext(parent)
	defer stop()
	err = queue.StartReservationConsumer(ctx, cfg.AMQPURL, cfg.LogDir)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
