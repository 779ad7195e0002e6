package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kenislabs/arka-gateway/internal/config"
	"github.com/kenislabs/arka-gateway/internal/server"
	"github.com/kenislabs/arka-gateway/internal/tools/github_tools"
	"github.com/kenislabs/arka-gateway/internal/tools/gtasks_tools"
	"github.com/kenislabs/arka-gateway/internal/tools/jira_tools"
	"github.com/kenislabs/arka-gateway/internal/tools/supabase_tools"
)

func newServeCmd() *cobra.Command {
	var (
		transport      string
		httpAddr       string
		yolo           bool
		storePath      string
		metricsEnabled bool
		metricsAddr    string
		debugMode      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP gateway server",
		Long: `Starts the MCP server exposing GitHub, Google Tasks, Jira and
Supabase tools. Tokens are resolved per principal through the OAuth
provider registry; unauthorized principals get authorization
instructions instead of errors.

By default the server runs in read-only mode: tools that mutate
upstream state are not registered. Pass --yolo to enable them.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("transport") {
				cfg.Server.Transport = transport
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = httpAddr
			}
			if cmd.Flags().Changed("store") {
				cfg.Store.Path = storePath
			}
			if cmd.Flags().Changed("metrics-enabled") {
				cfg.Metrics.Enabled = metricsEnabled
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.Server.MetricsAddr = metricsAddr
			}
			if yolo {
				cfg.Server.ReadOnly = false
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cfg, debugMode)
		},
	}

	cmd.Flags().StringVarP(&transport, "transport", "t", "stdio", "Transport type: stdio or http")
	cmd.Flags().StringVar(&httpAddr, "addr", ":8080", "Address for the HTTP transport")
	cmd.Flags().BoolVar(&yolo, "yolo", false, "Enable tools that mutate upstream state")
	cmd.Flags().StringVar(&storePath, "store", "", "Path to the credential database (default: in-memory)")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", false, "Enable the metrics server on a dedicated port")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address")
	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	return cmd
}

func runServe(cfg config.Config, debugMode bool) error {
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// stdio owns stdout for the protocol; logs always go to stderr.
	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// The prometheus pull endpoint needs a listener; stdio has none.
	if cfg.Server.Transport == "stdio" {
		cfg.Metrics.Enabled = false
	}

	serverContext, err := server.NewServerContext(shutdownCtx, cfg, version, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Error("server context shutdown failed", slog.Any("error", err))
		}
	}()

	mcpSrv := mcpserver.NewMCPServer("arka-gateway", version,
		mcpserver.WithToolCapabilities(true),
	)

	readOnly := cfg.Server.ReadOnly
	if readOnly {
		logger.Info("starting in read-only mode (use --yolo to enable write operations)")
	} else {
		logger.Info("starting with write operations enabled")
	}

	if err := registerAllTools(mcpSrv, serverContext, readOnly); err != nil {
		return err
	}

	var metricsServer *server.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:          cfg.Server.MetricsAddr,
			ServerContext: serverContext,
		})
		if err != nil {
			return err
		}
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", slog.Any("error", err))
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Error("metrics server shutdown failed", slog.Any("error", err))
			}
		}()
	}

	switch cfg.Server.Transport {
	case "stdio":
		return runStdioServer(mcpSrv)
	case "http":
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, cfg.Server.Addr, logger)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, http)", cfg.Server.Transport)
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	if err := <-serverDone; err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, addr string, logger *slog.Logger) error {
	httpServer := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithEndpointPath("/mcp"),
	)

	logger.Info("starting streamable HTTP server",
		slog.String("addr", addr),
		slog.String("endpoint", "/mcp"))

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(addr); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}
	return nil
}

// registerAllTools registers the tool catalogue for every upstream
// service. Registration itself never talks to providers, so services
// without configured credentials still register; their tools return
// authorization instructions when called.
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	registrations := []struct {
		name     string
		register func(*mcpserver.MCPServer, *server.ServerContext, bool) error
	}{
		{"GitHub", github_tools.RegisterGitHubTools},
		{"Google Tasks", gtasks_tools.RegisterGTasksTools},
		{"Jira", jira_tools.RegisterJiraTools},
		{"Supabase", supabase_tools.RegisterSupabaseTools},
	}

	for _, reg := range registrations {
		if err := reg.register(mcpSrv, sc, readOnly); err != nil {
			return fmt.Errorf("failed to register %s tools: %w", reg.name, err)
		}
	}
	return nil
}
