package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/pcshop/internal/cache"
	"github.com/Skotchmaster/pcshop/internal/config"
	"github.com/Skotchmaster/pcshop/internal/hash"
	"github.com/Skotchmaster/pcshop/internal/httpserver"
	"github.com/Skotchmaster/pcshop/internal/notify"
	"github.com/Skotchmaster/pcshop/internal/repo"
	"github.com/Skotchmaster/pcshop/internal/service"
	"github.com/Skotchmaster/pcshop/internal/tokens"
	"github.com/Skotchmaster/pcshop/pkg/db"
	"github.com/Skotchmaster/pcshop/pkg/logging"
	"github.com/Skotchmaster/pcshop/pkg/metrics"
	loggingmw "github.com/Skotchmaster/pcshop/pkg/middleware/logging"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	ctx := logging.IntoContext(cmd.Context(), logger)

	initCtx, cancel := context.WithTimeout(ctx, bootTimeout)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			logger.Error("db_close_failed", "error", err)
		}
	}()

	r := &repo.GormRepo{DB: gdb}
	if err := r.Migrate(ctx); err != nil {
		return err
	}

	m := metrics.New(cfg.ServiceName)
	hasher := hash.Bcrypt{Cost: bcrypt.DefaultCost}
	issuer := tokens.NewIssuer(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)

	users := &service.UserService{Repo: r, Hasher: hasher}
	authSvc := &service.AuthService{Repo: r, Tokens: issuer, Hasher: hasher, Users: users}
	catalog := &service.CatalogService{Repo: r}

	if cfg.Search.Enabled() {
		index, err := openIndex(ctx, cfg.Search)
		if err != nil {
			logger.Warn("search_disabled", "reason", "cannot reach elasticsearch", "error", err)
		} else {
			catalog.Index = index
		}
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = cache.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("cache_disabled", "reason", "cannot reach redis", "error", err)
		} else {
			catalog.Cache = cache.New(rdb, cfg.ServiceName+":catalog", cfg.CacheTTL, m)
			defer rdb.Close()
		}
	}

	notifier := &notify.OrderNotifier{Topic: cfg.OrderTopic, Metrics: m}
	if cfg.Mail.Enabled() {
		notifier.Mail = notify.NewMailer(cfg.Mail)
	}
	var publisher *notify.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher = notify.NewPublisher(cfg.KafkaBrokers)
		notifier.Events = publisher
	}
	cart := &service.CartService{Repo: r, Notifier: notifier, Metrics: m}

	if err := seeder(r, cfg, catalog).Run(ctx); err != nil {
		logger.Error("seed_failed", "error", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = httpserver.ErrorHandler
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(m.Middleware())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
	}))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:     &httpserver.AuthHTTP{Svc: authSvc},
		CartHandler:     &httpserver.CartHTTP{Svc: cart},
		OrderHandler:    &httpserver.OrderHTTP{Svc: &service.OrderService{Repo: r}},
		ProductHandler:  &httpserver.ProductHTTP{Svc: catalog},
		CategoryHandler: &httpserver.CategoryHTTP{Svc: catalog},
		ImageHandler:    &httpserver.ImageHTTP{Svc: &service.ImageService{Repo: r}},
		UserHandler:     &httpserver.UserHTTP{Svc: users},
		Authenticator:   authSvc,
		Metrics:         m,
		Ready:           r.Ping,
	})

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server_starting", "port", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server_failed", "error", err)
			stop()
		}
	}()

	<-sigCtx.Done()
	logger.Info("shutting_down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_failed", "error", err)
	}

	cart.Wait()
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka_close_failed", "error", err)
		}
	}

	logger.Info("shutdown_complete")
	return nil
}
