package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"gigmarket/internal/app"
	"gigmarket/internal/config"
	apphttp "gigmarket/internal/http"
	"gigmarket/internal/ratelimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		app.NewLogger(config.Config{}).Fatalf("load config: %v", err)
	}
	logger := app.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup: %v", err)
	}
	defer services.Close()

	deps := apphttp.Deps{
		Accounts:  services.Accounts,
		Profiles:  services.Profiles,
		Jobs:      services.Jobs,
		Proposals: services.Proposals,
		Messages:  services.Messages,
		Payments:  services.Payments,
		Storage:   services.Storage,
		Bucket:    cfg.Storage.Bucket,
		KeyPrefix: cfg.Storage.KeyPrefix,
		Feed:      services.Feed,
		JWTSecret: cfg.Auth.JWTSecret,
		Logger:    logger,
	}

	if cfg.Redis.Addr != "" {
		limiter, err := ratelimit.NewFixedWindowLimiter(ratelimit.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			Limit:    cfg.RateLimit.Requests,
			Window:   cfg.RateLimitWindow(),
		})
		if err != nil {
			logger.Fatalf("setup rate limiter: %v", err)
		}
		defer limiter.Close()
		deps.Limiter = limiter
		logger.Infof("rate limiting auth endpoints to %d per %s", cfg.RateLimit.Requests, limiter.Window())
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	apphttp.NewHandler(deps).RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}
