package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/box-builder/internal/builder"
	"github.com/iliyamo/box-builder/internal/config"
	"github.com/iliyamo/box-builder/internal/handler"
	"github.com/iliyamo/box-builder/internal/layout"
	"github.com/iliyamo/box-builder/internal/middleware"
	"github.com/iliyamo/box-builder/internal/queue"
	"github.com/iliyamo/box-builder/internal/repository"
	"github.com/iliyamo/box-builder/internal/router"
	"github.com/iliyamo/box-builder/internal/service"
	"github.com/iliyamo/box-builder/internal/storage"
)

func main() {
	cfg := config.Load()
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           cfg.LogLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", "err", err)
	}
}

func run(ctx context.Context, cfg config.Config, logger *log.Logger) error {
	store, err := repository.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())
	logger.Info("catalog ready", "driver", cfg.Driver)

	if created, err := service.EnsureOperator(ctx, store, cfg.OperatorUsername, cfg.OperatorPassword, cfg.BcryptCost); err != nil {
		return err
	} else if created {
		logger.Info("seeded operator account", "username", cfg.OperatorUsername)
	}

	blobs, err := storage.NewLocalStore(cfg.MediaDir, cfg.MediaBaseURL, cfg.MediaMaxBytes)
	if err != nil {
		return err
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig(), logger.With("component", "redis"))
	if rdb != nil {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()

	var pub service.Publisher = service.NopPublisher{}
	if cfg.EventsEnabled {
		pub = service.NewAMQPPublisher(cfg.BrokerURL)
		consumer := queue.NewConsumer(cfg.BrokerURL, cfg.OrderLogPath, logger.With("component", "consumer"))
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("order consumer stopped", "err", err)
			}
		}()
	}

	sessions := builder.NewSessionStore()
	go sessions.RunSweeper(ctx, cfg.SessionSweepEvery, cfg.SessionTTL, logger.With("component", "sweeper"))

	reg := layout.Default()
	httpLog := logger.With("component", "http")
	sessionHandler := handler.NewSessionHandler(sessions, store, reg, pub, httpLog)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(httpLog))
	e.Use(echomw.BodyLimit(bodyLimit(cfg.MediaMaxBytes)))
	e.Static(cfg.MediaBaseURL, cfg.MediaDir)

	router.RegisterRoutes(e, router.Handlers{
		Auth:     handler.NewAuthHandler(cfg, store, httpLog),
		Public:   handler.NewPublicHandler(store, reg, httpLog),
		Session:  sessionHandler,
		Operator: handler.NewOperatorHandler(store, reg, blobs, rdb, cacheCfg.Prefix, httpLog),
	}, router.Limits{
		Redis:     rdb,
		Cache:     cacheCfg,
		RateLimit: config.LoadRateLimitConfig(),
	}, cfg.JWTSecret, httpLog)

	errc := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := sessionHandler.Wait(shutdownCtx); err != nil {
		logger.Warn("order events still in flight at exit", "err", err)
	}
	return nil
}

// bodyLimit leaves room for multipart framing around the largest upload.
func bodyLimit(maxUpload int64) string {
	kib := maxUpload/1024 + 64
	return strconv.FormatInt(kib, 10) + "K"
}
