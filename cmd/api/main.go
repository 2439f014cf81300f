package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	goopenai "github.com/sashabaranov/go-openai"

	appdashboard "github.com/bryanwahyu/mediassist-gateway/internal/application/dashboard"
	appsymptoms "github.com/bryanwahyu/mediassist-gateway/internal/application/symptoms"
	"github.com/bryanwahyu/mediassist-gateway/internal/config"
	domain "github.com/bryanwahyu/mediassist-gateway/internal/domain/symptoms"
	"github.com/bryanwahyu/mediassist-gateway/internal/infra/ai/openai"
	"github.com/bryanwahyu/mediassist-gateway/internal/infra/callable"
	"github.com/bryanwahyu/mediassist-gateway/internal/infra/httpserver"
	"github.com/bryanwahyu/mediassist-gateway/internal/middleware"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("config load: %w", err)
	}

	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	invoker, err := newInvoker(cfg)
	if err != nil {
		return fmt.Errorf("init %s transport: %w", cfg.Remote.Transport, err)
	}

	gateway, err := appsymptoms.NewGateway()
	if err != nil {
		return fmt.Errorf("compile schemas: %w", err)
	}

	metrics := middleware.NewMetrics()

	symptomsSvc := appsymptoms.NewService(gateway, invoker, cfg.Remote.Function)
	symptomsSvc.Observer = metrics
	symptomsSvc.Logger = logger

	handler := httpserver.NewRouter(httpserver.Options{
		Symptoms:       symptomsSvc,
		Dashboard:      appdashboard.NewService(),
		Metrics:        metrics,
		Logger:         logger,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			"addr", srv.Addr,
			"transport", cfg.Remote.Transport,
			"function", cfg.Remote.Function)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newInvoker(cfg *config.Config) (domain.Invoker, error) {
	switch cfg.Remote.Transport {
	case config.TransportOpenAI:
		oc := goopenai.DefaultConfig(cfg.OpenAI.APIKey)
		if cfg.OpenAI.BaseURL != "" {
			oc.BaseURL = cfg.OpenAI.BaseURL
		}
		oc.HTTPClient = &http.Client{Timeout: cfg.Remote.Timeout}
		return openai.NewClientWithConfig(oc, cfg.OpenAI.Model), nil
	default:
		c, err := callable.New(callable.Config{
			BaseURL:         cfg.Remote.BaseURL,
			Project:         cfg.Remote.Project,
			Region:          cfg.Remote.Region,
			Auth:            cfg.Remote.Auth,
			CredentialsFile: cfg.Remote.CredentialsFile,
			Timeout:         cfg.Remote.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}
