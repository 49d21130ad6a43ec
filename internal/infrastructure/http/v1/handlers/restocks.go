package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/domain/cashbox"
	"retailcore/internal/domain/receipt"
	"retailcore/internal/domain/reports"
	"retailcore/internal/domain/restocks"
	"retailcore/internal/infrastructure/export"
	"retailcore/internal/infrastructure/http/v1/dto"
	"retailcore/internal/infrastructure/http/v1/middleware"
)

// RestockService is the restock settlement engine.
type RestockService interface {
	Create(ctx context.Context, actor entity.Actor, in restocks.RestockInput) (*restocks.RestockView, error)
	AddPayment(ctx context.Context, actor entity.Actor, restockID id.ID, in cashbox.PaymentInput) (*restocks.RestockView, error)
	SetOverride(ctx context.Context, restockID id.ID, in *receipt.OverrideInput) (*restocks.RestockView, error)
	Get(ctx context.Context, restockID id.ID) (*restocks.RestockView, error)
}

// RestockMovements lists restocks for the movements screen.
type RestockMovements interface {
	RestockMovements(ctx context.Context, filter reports.MovementFilter) ([]reports.Movement, error)
}

// RestockHandler handles HTTP requests for restocks.
type RestockHandler struct {
	*BaseHandler
	service   RestockService
	movements RestockMovements
}

// NewRestockHandler creates a new restock handler.
func NewRestockHandler(base *BaseHandler, service RestockService, movements RestockMovements) *RestockHandler {
	return &RestockHandler{BaseHandler: base, service: service, movements: movements}
}

// Create records a purchase.
// POST /restocks
func (h *RestockHandler) Create(c *gin.Context) {
	var req dto.CreateRestockRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	view, err := h.service.Create(c.Request.Context(), middleware.Actor(c), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, view)
}

// Get returns a restock with lines, payments and status.
// GET /restocks/:id
func (h *RestockHandler) Get(c *gin.Context) {
	restockID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	view, err := h.service.Get(c.Request.Context(), restockID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, view)
}

// AddPayment pays a restock from a cashbox.
// POST /restocks/:id/payments
func (h *RestockHandler) AddPayment(c *gin.Context) {
	restockID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.PaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	view, err := h.service.AddPayment(c.Request.Context(), middleware.Actor(c), restockID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, view)
}

// SetStatus pins or clears the restock status.
// PUT /restocks/:id/status
func (h *RestockHandler) SetStatus(c *gin.Context) {
	restockID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.StatusOverrideRequest
	if !h.BindJSON(c, &req) {
		return
	}

	view, err := h.service.SetOverride(c.Request.Context(), restockID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, view)
}

// Movements lists restocks with payment summaries.
// GET /restocks/movements
func (h *RestockHandler) Movements(c *gin.Context) {
	var q dto.MovementQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	rows, err := h.movements.RestockMovements(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(rows))
}

// ReceiptPDF renders a printable purchase receipt.
// GET /restocks/:id/receipt.pdf
func (h *RestockHandler) ReceiptPDF(c *gin.Context) {
	restockID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	view, err := h.service.Get(c.Request.Context(), restockID)
	if err != nil {
		h.Error(c, err)
		return
	}

	pdf, err := export.ReceiptPDF(export.RestockReceipt(view))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Attachment(c, receiptFilename("restock", view.Number, view.ID), export.PDFContentType, pdf)
}
