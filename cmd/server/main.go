package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ahmednasr/githelpdesk/internal/app"
	"github.com/ahmednasr/githelpdesk/internal/config"
	"github.com/ahmednasr/githelpdesk/internal/handler"
	"github.com/ahmednasr/githelpdesk/internal/middleware"
	"github.com/ahmednasr/githelpdesk/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// main is the single entry-point for the REST API.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "githelpdesk:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	log, err := logger.NewFor(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("close app", zap.Error(err))
		}
	}()

	srv := fiber.New(fiber.Config{
		AppName:      "githelpdesk",
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ErrorHandler: handler.ErrorHandler,
	})
	srv.Use(recover.New())
	srv.Use(middleware.Logging(log))

	srv.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	handler.RegisterRoutes(srv, handler.Services{
		Chat:      a.Chat,
		Sessions:  a.Sessions,
		Gatherers: a.Gatherers,
		Health:    handler.NewHealthHandler(a.MongoPing, a.RedisPing, a.LLM.Name()),
	}, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("port", cfg.Port), zap.String("llm", a.LLM.Name()))
		errCh <- srv.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	if err := srv.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
