package api

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/api/handlers"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/api/middleware"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/config"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/firewall"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/network"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/repository"
	ws "github.com/CipherSaber/Autonomous-Firewall-Orchestrator/internal/websocket"
	"github.com/CipherSaber/Autonomous-Firewall-Orchestrator/pkg/logger"
)

// ServerDeps holds all dependencies required by the API server.
type ServerDeps struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        *sql.DB // nil when persistence is disabled
	Collector *network.Collector
	Validator *firewall.Validator
	Detector  *firewall.Detector
	Deployer  *firewall.Deployer
	Hub       *ws.Hub

	// Repositories (nil when persistence is disabled)
	AuditLogRepo   repository.AuditLogRepository
	DeploymentRepo repository.DeploymentRepository
}

// NewServer creates and configures the Fiber application with all routes.
func NewServer(deps ServerDeps) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler,
		AppName:      "Autonomous Firewall Orchestrator",
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(middleware.RequestLogger(deps.Logger))
	app.Use(cors.New(cors.Config{
		AllowOrigins: deps.Config.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	// ---- Handlers ----
	healthH := handlers.NewHealthHandler(deps.DB)
	toolsH := handlers.NewToolsHandler()
	networkH := handlers.NewNetworkHandler(deps.Collector)
	validateH := handlers.NewValidateHandler(deps.Validator)
	conflictsH := handlers.NewConflictsHandler(deps.Detector, deps.AuditLogRepo, deps.Hub)
	deployH := handlers.NewDeployHandler(deps.Deployer, deps.AuditLogRepo, deps.DeploymentRepo)

	// ---- Routes ----
	v1 := app.Group("/api/v1")

	v1.Get("/health", healthH.HealthCheck)

	tools := v1.Group("/tools")
	tools.Get("/list", toolsH.ListTools)
	tools.Get("/network-context", networkH.GetNetworkContext)
	tools.Post("/validate-syntax", validateH.ValidateSyntax)
	tools.Post("/detect-conflicts", conflictsH.DetectConflicts)
	tools.Post("/deploy-policy", deployH.DeployPolicy)
	tools.Post("/confirm-deployment", deployH.ConfirmDeployment)
	tools.Post("/rollback", deployH.RollbackRule)

	v1.Get("/deployments", deployH.ListDeployments)

	// WebSocket event stream
	app.Use("/ws", ws.UpgradeMiddleware())
	app.Get("/ws", ws.Handler(deps.Hub))

	return app
}
