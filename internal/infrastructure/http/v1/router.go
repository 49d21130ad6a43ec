// Package v1 provides HTTP API version 1.
package v1

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"retailcore/internal/core/idempotency"
	"retailcore/internal/infrastructure/http/v1/dto"
	"retailcore/internal/infrastructure/http/v1/handlers"
	"retailcore/internal/infrastructure/http/v1/middleware"
	"retailcore/pkg/logger"
)

// Reports is the read side used by several handlers.
type Reports interface {
	handlers.SaleMovements
	handlers.RestockMovements
	handlers.DebtReports
	handlers.ReceiptReports
}

// RouterConfig holds everything the router wires together.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// HealthChecks are probed by /health/ready
	HealthChecks map[string]handlers.Pinger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// ActorPolicy decides which callers may act for another user
	ActorPolicy middleware.ActorPolicy

	// Idempotency enables Idempotency-Key handling when set
	Idempotency idempotency.Store

	// RateLimit is applied to every route when set
	RateLimit gin.HandlerFunc

	CORSAllowedOrigins []string

	// StatusOverrideRoles restricts status overrides when non-empty
	StatusOverrideRoles []string

	// Development enables gin debug mode
	Development bool

	Sales     handlers.SaleService
	Restocks  handlers.RestockService
	Suppliers handlers.SupplierPayer
	Returns   handlers.ReturnService
	Cashboxes handlers.CashboxLedger
	Rolls     handlers.RollService
	Reports   Reports
	Audit     handlers.AuditHistory
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	if cfg.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := dto.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	router.Use(middleware.ErrorHandler())
	if cfg.RateLimit != nil {
		router.Use(cfg.RateLimit)
	}

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.HealthChecks)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.JWTValidator, cfg.ActorPolicy))
	if cfg.Idempotency != nil {
		api.Use(middleware.Idempotency(cfg.Idempotency))
	}

	base := handlers.NewBaseHandler()
	registerDocumentRoutesFor(api, base, cfg)
	registerSupplierRoutes(api, base, cfg)
	registerReturnRoutes(api, base, cfg)
	registerCashboxRoutes(api, base, cfg)
	registerReportRoutes(api, base, cfg)
	registerRollRoutes(api, base, cfg)

	return router, nil
}

func registerDocumentRoutesFor(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	saleHandler := handlers.NewSaleHandler(base, cfg.Sales, cfg.Reports, cfg.Audit)
	RegisterDocumentRoutes(rg.Group("/sales"), saleHandler, cfg.StatusOverrideRoles)

	restockHandler := handlers.NewRestockHandler(base, cfg.Restocks, cfg.Reports)
	RegisterDocumentRoutes(rg.Group("/restocks"), restockHandler, cfg.StatusOverrideRoles)
}

func registerSupplierRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewSupplierHandler(base, cfg.Suppliers, cfg.Reports)
	suppliers := rg.Group("/suppliers")
	{
		suppliers.GET("/debts", h.Debts)
		suppliers.GET("/:id/debt", h.Debt)
		suppliers.POST("/:id/payments", h.Pay)
	}
}

func registerReturnRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewReturnHandler(base, cfg.Returns)
	returns := rg.Group("/returns")
	{
		returns.GET("", h.List)
		returns.POST("", h.Request)
		returns.PATCH("/:id", h.Resolve)
	}
}

func registerCashboxRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewCashboxHandler(base, cfg.Cashboxes)
	cashboxes := rg.Group("/cashboxes")
	{
		cashboxes.GET("", h.List)
		cashboxes.GET("/manual", h.ManualEntries)
		cashboxes.POST("/manual", h.AddManualEntry)
		cashboxes.GET("/:cashbox/entries", h.Entries)
		cashboxes.GET("/:cashbox/entries.xlsx", h.ExportEntries)
	}
}

func registerReportRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewReceiptHandler(base, cfg.Reports)
	rg.GET("/receipts", h.List)
}

func registerRollRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewRollHandler(base, cfg.Rolls)
	rolls := rg.Group("/rolls")
	{
		rolls.POST("", h.Create)
		rolls.GET("/item/:itemId", h.ListByItem)
		rolls.DELETE("/:id", h.Delete)
	}
}
