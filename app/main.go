package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"

	"fieldservice-admin/internal/listeners"
	"fieldservice-admin/internal/repositories"
	"fieldservice-admin/internal/routes"
	"fieldservice-admin/migrations"
	"fieldservice-admin/pkg/config"
	"fieldservice-admin/pkg/customvalidator"
	"fieldservice-admin/pkg/database/postgresql"
	apperrors "fieldservice-admin/pkg/errors"
	"fieldservice-admin/pkg/eventbus"
	applogger "fieldservice-admin/pkg/logger"
	appmiddleware "fieldservice-admin/pkg/middleware"
	"fieldservice-admin/pkg/restclient"
	"fieldservice-admin/pkg/service"
	"fieldservice-admin/pkg/tracing"
	"fieldservice-admin/pkg/utils"
	"fieldservice-admin/pkg/websocket"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.New()
	logger := applogger.NewLogger(cfg.Log.Level, cfg.Log.File)
	defer func() { _ = logger.Sync() }()
	loggers := applogger.NewLoggers(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing, logger)
	if err != nil {
		logger.Fatal("Ошибка настройки трейсинга", zap.Error(err))
	}

	// 1. Echo и middleware
	e := echo.New()
	e.HideBanner = true
	e.Use(otelecho.Middleware(tracing.ServiceName))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisableStackAll: true,
		StackSize:       1 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("Паника при обработке запроса",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.String("stack", string(stack)),
			)
			if !c.Response().Committed {
				httpErr := apperrors.NewHttpError(http.StatusInternalServerError, "Internal server error.", err, nil)
				_ = utils.ErrorResponse(c, httpErr, logger)
			}
			return err
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderXRequestID},
		AllowCredentials: true,
		ExposeHeaders:    []string{echo.HeaderContentDisposition, echo.HeaderXRequestID},
	}))
	e.Use(appmiddleware.InjectLogger(logger))

	v, err := customvalidator.New()
	if err != nil {
		logger.Fatal("Ошибка регистрации правил валидации", zap.Error(err))
	}
	e.Validator = v

	// 2. Хранилища
	if cfg.Postgres.AutoMigrate {
		if err := migrations.Up(cfg.Postgres.DSN); err != nil {
			logger.Fatal("Ошибка применения миграций", zap.Error(err))
		}
	}
	dbConn, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN, logger)
	if err != nil {
		logger.Fatal("Не удалось подключиться к PostgreSQL", zap.Error(err))
	}
	defer dbConn.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		logger.Fatal("Не удалось подключиться к Redis", zap.Error(err), zap.String("address", cfg.Redis.Address))
	}
	defer redisClient.Close()

	// 3. Бэкенд, события, WebSocket
	upstream := restclient.New(cfg.Upstream.BaseURL, cfg.Upstream.Token, cfg.Upstream.Timeout, loggers.Workflow)
	jwtSvc := service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL)
	bus := eventbus.New(logger)
	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	// 4. Роуты и подписчики
	svcs := routes.InitRouter(e, routes.Dependencies{
		Pool:     dbConn,
		Cache:    repositories.NewRedisCacheRepository(redisClient),
		Upstream: upstream,
		Hub:      hub,
		Bus:      bus,
		JWT:      jwtSvc,
		Config:   cfg,
		Loggers:  loggers,
	})
	listeners.NewWorkflowListener(svcs.Journal, svcs.Notifier, loggers.Workflow).Register(bus)

	// 5. Сервер
	go func() {
		logger.Info("Сервер запущен", zap.String("port", cfg.Server.Port), zap.String("upstream", upstream.BaseURL()))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Ошибка запуска сервера", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Получен сигнал остановки")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ошибка остановки сервера", zap.Error(err))
	}
	bus.Wait()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("Ошибка остановки трейсинга", zap.Error(err))
	}
	logger.Info("Сервер остановлен")
}
