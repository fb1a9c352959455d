package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	mcpadapter "github.com/complyon/aiact-engine/internal/adapters/mcp"
	"github.com/complyon/aiact-engine/internal/bootstrap"
	"github.com/complyon/aiact-engine/internal/config"
	"github.com/complyon/aiact-engine/internal/observability/logging"
)

const version = "0.1.0"

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	// stdout carries the MCP protocol, so logs go to stderr.
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel))

	analyzer, err := bootstrap.NewLocalAnalyzer(context.Background(), cfg)
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}

	server := mcpadapter.NewServer(analyzer, version)
	if err := server.ServeStdio(); err != nil {
		slog.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
