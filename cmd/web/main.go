package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"

	"github.com/project-campus/campus/internal/authclient"
	"github.com/project-campus/campus/internal/config"
	"github.com/project-campus/campus/internal/logging"
	"github.com/project-campus/campus/internal/server"
	"github.com/project-campus/campus/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	client := authclient.New(cfg.APIBaseURL, cfg.APITimeout, logger)
	pages := web.NewHandler(client, cfg.AppName, logger)

	srv, err := server.New(server.Options{
		AppName:      cfg.AppName,
		Addr:         cfg.WebAddress(),
		Views:        web.Views(),
		ErrorHandler: pages.ErrorHandler,
	}, func(app *fiber.App) error {
		pages.Register(app)
		return nil
	})
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		logger.Info("web frontend listening", "addr", cfg.WebAddress(), "api", cfg.APIBaseURL)
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}
