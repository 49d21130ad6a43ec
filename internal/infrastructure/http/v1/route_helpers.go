package v1

import (
	"github.com/gin-gonic/gin"

	"retailcore/internal/infrastructure/http/v1/middleware"
)

// DocumentRouteHandler is implemented by the sale and restock handlers.
type DocumentRouteHandler interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	AddPayment(c *gin.Context)
	SetStatus(c *gin.Context)
	Movements(c *gin.Context)
	ReceiptPDF(c *gin.Context)
}

// DocumentEditHandler is an optional interface for documents that can be
// edited after creation.
type DocumentEditHandler interface {
	Edit(c *gin.Context)
	Edits(c *gin.Context)
}

// RegisterDocumentRoutes registers the settlement routes shared by sales and
// restocks. If the handler also implements DocumentEditHandler, the edit
// routes are registered too. Status overrides require one of overrideRoles
// when any are given.
//
// Usage:
//
//	handler := handlers.NewSaleHandler(base, salesService, reportService, auditStore)
//	RegisterDocumentRoutes(api.Group("/sales"), handler, nil)
func RegisterDocumentRoutes(group *gin.RouterGroup, handler DocumentRouteHandler, overrideRoles []string) {
	group.POST("", handler.Create)
	group.GET("/movements", handler.Movements)
	group.GET("/:id", handler.Get)
	group.POST("/:id/payments", handler.AddPayment)
	group.PUT("/:id/status", roleGate(overrideRoles), handler.SetStatus)
	group.GET("/:id/receipt.pdf", handler.ReceiptPDF)

	if editor, ok := handler.(DocumentEditHandler); ok {
		group.PATCH("/:id", editor.Edit)
		group.GET("/:id/edits", editor.Edits)
	}
}

func roleGate(roles []string) gin.HandlerFunc {
	if len(roles) == 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.RequireRole(roles...)
}
