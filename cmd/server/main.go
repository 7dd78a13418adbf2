package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tejari49/timeroster/internal/api"
	"github.com/tejari49/timeroster/internal/config"
	"github.com/tejari49/timeroster/internal/db"
	"github.com/tejari49/timeroster/internal/dispatch"
	"github.com/tejari49/timeroster/internal/events"
	"github.com/tejari49/timeroster/internal/middleware"
	"github.com/tejari49/timeroster/internal/observ"
	"github.com/tejari49/timeroster/internal/push"
	"github.com/tejari49/timeroster/internal/repository"
	"github.com/tejari49/timeroster/internal/repository/postgres"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	bus, err := events.NewBus(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer bus.Close()
	if err := bus.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	store := postgres.NewDocStore(database.Pool())
	tokens := repository.NewTokenRegistry(store)
	sender := push.NewHTTPSender(cfg.PushEndpoint, cfg.PushAPIKey)

	// Dispatch side: one worker consumes document-write events and runs
	// the trigger handlers. Handlers are stateless; redelivery-safe.
	dispatcher := dispatch.NewDispatcher(store, tokens, sender, cfg.AppURL, logger)
	mirror := dispatch.NewMirror(store, logger)

	worker := events.NewWorker(bus.Client(), "dispatch-"+uuid.NewString()[:8], logger)
	worker.Handle(events.KindNotificationCreated, dispatcher.HandleNotificationCreated)
	worker.Handle(events.KindSecretRequestWritten, mirror.HandleSecretRequestWritten)

	workerDone := make(chan error, 1)
	go func() {
		workerDone <- worker.Run(ctx)
	}()

	// API side.
	authHandler := api.NewAuthHandler(store, cfg.JWTSecret, logger)
	profileHandler := api.NewProfileHandler(store, logger)
	friendsHandler := api.NewFriendsHandler(store, logger)
	secretHandler := api.NewSecretHandler(store, bus, logger)
	tokensHandler := api.NewTokensHandler(store, logger)
	notificationsHandler := api.NewNotificationsHandler(store, bus, logger)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := gin.New()
	srv.Use(observ.GinLogger(logger), gin.Recovery())

	// Public: health for load balancers, auth because the caller has no
	// token yet.
	srv.GET("/v1/health", func(c *gin.Context) {
		if err := database.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	srv.POST("/v1/auth/signup", authHandler.Signup)
	srv.POST("/v1/auth/login", authHandler.Login)

	v1 := srv.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	v1.POST("/profile", profileHandler.Update)
	v1.POST("/friends/request", friendsHandler.Request)
	v1.POST("/friends/accept", friendsHandler.Accept)
	v1.GET("/friends", friendsHandler.List)
	v1.POST("/secret/requests", secretHandler.Create)
	v1.POST("/secret/requests/:id/respond", secretHandler.Respond)
	v1.GET("/secret/contacts", secretHandler.Contacts)
	v1.PUT("/push/tokens", tokensHandler.Register)
	v1.DELETE("/push/tokens/:token", tokensHandler.Unregister)
	v1.POST("/notifications", notificationsHandler.Enqueue)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv,
	}

	logger.Info("starting timeroster",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
	)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve HTTP: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown", zap.Error(err))
	}
	if err := <-workerDone; err != nil {
		logger.Error("worker stopped", zap.Error(err))
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve HTTP: %w", err)
	}
	return nil
}
