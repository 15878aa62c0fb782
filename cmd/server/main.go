package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/api"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/config"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/db"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/firewall"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/network"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/nftexec"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/realtime"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/repository"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/websocket"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/migrations"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Autonomous Firewall Orchestrator...")

	// Connect to PostgreSQL when a DSN is configured; the orchestrator runs
	// fine without persistence on a bare host.
	var (
		sqlDB       *sql.DB
		auditRepo   repository.AuditLogRepository
		depRepo     repository.DeploymentRepository
		historySink firewall.HistoryRecorder
	)
	if cfg.PostgresDSN != "" {
		sqlDB, err = db.Connect(cfg.PostgresDSN)
		if err != nil {
			appLogger.Fatal("Failed to connect to database", "error", err)
		}
		defer sqlDB.Close()

		migrator := db.NewMigrator(sqlDB, migrations.FS, appLogger)
		if err := migrator.Up(context.Background()); err != nil {
			appLogger.Fatal("Failed to run migrations", "error", err)
		}
		appLogger.Info("Database migrations completed")

		auditRepo = repository.NewAuditLogRepository(sqlDB)
		depRepo = repository.NewDeploymentRepository(sqlDB)
		historySink = repository.NewHistorySink(depRepo, appLogger)
	} else {
		appLogger.Info("DATABASE_DSN not set; audit trail disabled")
	}

	// Initialize WebSocket hub
	hub := websocket.NewHub(appLogger)
	go hub.Run()

	// Host command runner shared by every subsystem that drives nft/ip.
	runner := nftexec.NewRunner()

	collector := network.NewCollector(runner, appLogger)
	validator := firewall.NewValidator(runner, appLogger)
	detector := firewall.NewDetector(collector, appLogger)
	deployer := firewall.NewDeployer(firewall.DeployerOptions{
		RequireApproval: cfg.RequireApproval,
		BackupDir:       cfg.BackupDir,
		DefaultTimeout:  time.Duration(cfg.RollbackTimeout) * time.Second,
	}, runner, hub, historySink, appLogger)

	// Live traffic monitoring (NFLOG -> WebSocket)
	trafficCtx, trafficCancel := context.WithCancel(context.Background())
	defer trafficCancel()
	if cfg.TrafficMonitor {
		monitor := realtime.NewMonitor(appLogger)
		bridge := realtime.NewBridge(monitor, hub, appLogger)
		go func() {
			if err := bridge.Run(trafficCtx); err != nil && trafficCtx.Err() == nil {
				appLogger.Error("Traffic monitor error", "error", err)
			}
		}()
	}

	// Setup and start API server
	server := api.NewServer(api.ServerDeps{
		Config:         cfg,
		Logger:         appLogger,
		DB:             sqlDB,
		Collector:      collector,
		Validator:      validator,
		Detector:       detector,
		Deployer:       deployer,
		Hub:            hub,
		AuditLogRepo:   auditRepo,
		DeploymentRepo: depRepo,
	})

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
		appLogger.Info("Server listening", "address", addr)
		if err := server.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down gracefully...")
	trafficCancel()
	hub.Shutdown()
	if err := server.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", "error", err)
	}
	appLogger.Info("Server stopped")
}
