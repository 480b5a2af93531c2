// Package main is the entry point for the procdock daemon.
// The server exposes HTTP and WebSocket endpoints for launching, observing
// and stopping workspace commands.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/procdock/procdock/internal/command"
	commandhandlers "github.com/procdock/procdock/internal/command/handlers"
	commandws "github.com/procdock/procdock/internal/command/wshandlers"
	"github.com/procdock/procdock/internal/common/config"
	"github.com/procdock/procdock/internal/common/httpmw"
	"github.com/procdock/procdock/internal/common/logger"
	"github.com/procdock/procdock/internal/events"
	gateways "github.com/procdock/procdock/internal/gateway/websocket"
	"github.com/procdock/procdock/internal/settings"
	settingshandlers "github.com/procdock/procdock/internal/settings/handlers"
	"github.com/procdock/procdock/internal/tracing"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize logger
	log, err := logger.NewLogger(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetDefault(log)

	log.Info("Starting procdock...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Event bus (in-memory, or NATS if configured)
	eventBus, busCleanup, err := events.Provide(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize event bus", zap.Error(err))
	}
	defer busCleanup()

	// 4. Command registry and runner
	registry := command.NewRegistry(eventBus, cfg.Runner.RecentLimit, log)
	runner := command.NewRunner(
		registry,
		command.NewExecFactory(),
		command.NewPtyFactory(cfg.Runner.DefaultCols, cfg.Runner.DefaultRows),
		eventBus,
		command.RunnerOptions{
			BufferMaxBytes:  int64(cfg.Runner.OutputBufferBytes),
			StopGracePeriod: cfg.Runner.StopGracePeriodDuration(),
		},
		log,
	)
	log.Info("Command runner initialized",
		zap.Int("recent_limit", cfg.Runner.RecentLimit),
		zap.Int("output_buffer_bytes", cfg.Runner.OutputBufferBytes),
	)

	// 5. Settings store
	store, err := settings.NewYAMLStore(cfg.Settings.Path, log)
	if err != nil {
		log.Fatal("Failed to open settings store", zap.Error(err), zap.String("path", cfg.Settings.Path))
	}

	// 6. WebSocket gateway
	gateway, err := gateways.Provide(log)
	if err != nil {
		log.Fatal("Failed to initialize WebSocket gateway", zap.Error(err))
	}
	gateway.Hub.SetCatchupProvider(gateways.NewCommandCatchupProvider(runner))

	cmdWsHandlers := commandws.NewHandlers(runner, log)
	cmdWsHandlers.RegisterHandlers(gateway.Dispatcher)

	go gateway.Hub.Run(ctx)
	gateways.RegisterCommandNotifications(ctx, eventBus, gateway.Hub, log)

	// ============================================
	// HTTP SERVER (WebSocket + HTTP endpoints)
	// ============================================
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(httpmw.OtelTracing("procdock"))
	router.Use(httpmw.RequestLogger(log, "procdock"))

	// WebSocket endpoint - primary realtime transport
	gateway.SetupRoutes(router)

	// HTTP handlers
	commandhandlers.RegisterCommandRoutes(router, runner, log)
	settingshandlers.RegisterSettingsRoutes(router, store, log)

	// Health check (simple HTTP for load balancers/monitoring)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "procdock",
		})
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	go func() {
		log.Info("Server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("API configured",
		zap.String("websocket", "/ws"),
		zap.String("health", "/health"),
		zap.String("http", "/api/v1"),
	)

	// ============================================
	// GRACEFUL SHUTDOWN
	// ============================================
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down procdock...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
	if err := runner.Shutdown(shutdownCtx); err != nil {
		log.Error("Command runner shutdown error", zap.Error(err))
	}
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		log.Error("Tracing shutdown error", zap.Error(err))
	}

	log.Info("procdock stopped")
}
