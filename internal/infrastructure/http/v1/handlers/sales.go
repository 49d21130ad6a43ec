package handlers

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/domain/cashbox"
	"retailcore/internal/domain/receipt"
	"retailcore/internal/domain/reports"
	"retailcore/internal/domain/sales"
	"retailcore/internal/infrastructure/export"
	"retailcore/internal/infrastructure/http/v1/dto"
	"retailcore/internal/infrastructure/http/v1/middleware"
	"retailcore/internal/infrastructure/storage/postgres"
)

// SaleService is the sales settlement engine.
type SaleService interface {
	Create(ctx context.Context, actor entity.Actor, in sales.SaleInput) (*sales.SaleView, error)
	Edit(ctx context.Context, actor entity.Actor, saleID id.ID, in sales.EditInput) (*sales.SaleView, error)
	AddPayment(ctx context.Context, actor entity.Actor, saleID id.ID, in cashbox.PaymentInput) (*sales.SaleView, error)
	SetOverride(ctx context.Context, saleID id.ID, in *receipt.OverrideInput) (*sales.SaleView, error)
	Get(ctx context.Context, saleID id.ID) (*sales.SaleView, error)
}

// SaleMovements lists sales for the movements screen.
type SaleMovements interface {
	SaleMovements(ctx context.Context, filter reports.MovementFilter) ([]reports.Movement, error)
}

// AuditHistory reads stored document snapshots.
type AuditHistory interface {
	History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]postgres.AuditEntry, error)
}

// SaleHandler handles HTTP requests for sales.
type SaleHandler struct {
	*BaseHandler
	service   SaleService
	movements SaleMovements
	audit     AuditHistory
}

// NewSaleHandler creates a new sale handler. audit may be nil.
func NewSaleHandler(base *BaseHandler, service SaleService, movements SaleMovements, audit AuditHistory) *SaleHandler {
	return &SaleHandler{BaseHandler: base, service: service, movements: movements, audit: audit}
}

// Create settles a new sale.
// POST /sales
func (h *SaleHandler) Create(c *gin.Context) {
	var req dto.CreateSaleRequest
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

// Get returns a sale with lines, payments and status.
// GET /sales/:id
func (h *SaleHandler) Get(c *gin.Context) {
	saleID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	view, err := h.service.Get(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, view)
}

// Edit replaces the lines of a sale.
// PATCH /sales/:id
func (h *SaleHandler) Edit(c *gin.Context) {
	saleID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.EditSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	view, err := h.service.Edit(c.Request.Context(), middleware.Actor(c), saleID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, view)
}

// AddPayment records a further payment.
// POST /sales/:id/payments
func (h *SaleHandler) AddPayment(c *gin.Context) {
	saleID, ok := h.ParamID(c, "id")
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

	view, err := h.service.AddPayment(c.Request.Context(), middleware.Actor(c), saleID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, view)
}

// SetStatus pins or clears the sale status.
// PUT /sales/:id/status
func (h *SaleHandler) SetStatus(c *gin.Context) {
	saleID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.StatusOverrideRequest
	if !h.BindJSON(c, &req) {
		return
	}

	view, err := h.service.SetOverride(c.Request.Context(), saleID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, view)
}

// Movements lists sales with payment summaries.
// GET /sales/movements
func (h *SaleHandler) Movements(c *gin.Context) {
	var q dto.MovementQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	rows, err := h.movements.SaleMovements(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(rows))
}

// Edits lists the pre-edit snapshots of a sale, newest first.
// GET /sales/:id/edits
func (h *SaleHandler) Edits(c *gin.Context) {
	saleID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if h.audit == nil {
		h.OK(c, dto.NewListResponse[postgres.AuditEntry](nil))
		return
	}

	entries, err := h.audit.History(c.Request.Context(), sales.AuditEntityType, saleID, h.ParseIntQuery(c, "limit", 50))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(entries))
}

// ReceiptPDF renders a printable receipt.
// GET /sales/:id/receipt.pdf
func (h *SaleHandler) ReceiptPDF(c *gin.Context) {
	saleID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	view, err := h.service.Get(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	pdf, err := export.ReceiptPDF(export.SaleReceipt(view))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Attachment(c, receiptFilename("sale", view.Number, view.ID), export.PDFContentType, pdf)
}

func receiptFilename(kind, number string, docID id.ID) string {
	if number == "" {
		number = kind + "-" + strconv.FormatInt(docID, 10)
	}
	return number + ".pdf"
}
