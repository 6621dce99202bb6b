// marketbot-server exposes the marketing pipelines as MCP tools over SSE.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketbot/pkg/config"
	"marketbot/pkg/crew"
	"marketbot/pkg/logx"
	"marketbot/pkg/mcpserver"
	"marketbot/pkg/persistence"
)

// EnvSecretsPassword supplies the secrets file password; servers run
// headless, so there is no interactive prompt fallback.
const EnvSecretsPassword = "MARKETBOT_SECRETS_PASSWORD"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "marketbot.yaml", "Path to config file")
	secretsDir := flag.String("secrets-dir", ".", "Directory holding the encrypted secrets file")
	flag.Parse()

	logger := logx.NewLogger("server")

	if password := os.Getenv(EnvSecretsPassword); password != "" {
		if err := config.LoadSecrets(*secretsDir, password); err != nil {
			logger.Error("failed to load secrets: %v", err)
			return 1
		}
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("configuration error: %v", err)
		return 1
	}

	history, err := persistence.Open(cfg.DBPath)
	if err != nil {
		logger.Warn("run history unavailable: %v", err)
		history = nil
	}
	if history != nil {
		defer func() { _ = history.Close() }()
	}

	pipelines := crew.NewPipelines(cfg, crew.NewRunner(cfg), history)
	mcp := mcpserver.NewServer(pipelines, logx.NewLogger("mcp-server"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           mcp.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("%s listening on port %d (model %s)",
			mcpserver.ServiceName, cfg.Server.Port, cfg.LLM.Model)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error: %v", err)
			return 1
		}
		return 0
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed: %v", err)
		return 1
	}

	logger.Info("server stopped")
	return 0
}
