package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/domain/reports"
	"retailcore/internal/domain/suppliers"
	"retailcore/internal/infrastructure/http/v1/dto"
	"retailcore/internal/infrastructure/http/v1/middleware"
)

// SupplierPayer allocates supplier payments.
type SupplierPayer interface {
	Pay(ctx context.Context, actor entity.Actor, supplierID id.ID, in suppliers.DebtPayment) ([]suppliers.Slice, error)
}

// DebtReports reads supplier debt.
type DebtReports interface {
	DebtOverview(ctx context.Context) (*reports.DebtOverview, error)
	DebtDetail(ctx context.Context, supplierID id.ID) (*reports.DebtDetail, error)
}

// SupplierHandler handles supplier debt endpoints.
type SupplierHandler struct {
	*BaseHandler
	payer   SupplierPayer
	reports DebtReports
}

// NewSupplierHandler creates a new supplier handler.
func NewSupplierHandler(base *BaseHandler, payer SupplierPayer, reports DebtReports) *SupplierHandler {
	return &SupplierHandler{BaseHandler: base, payer: payer, reports: reports}
}

// Debts returns the debt overview.
// GET /suppliers/debts
func (h *SupplierHandler) Debts(c *gin.Context) {
	overview, err := h.reports.DebtOverview(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, overview)
}

// Debt returns one supplier's restocks and payments.
// GET /suppliers/:id/debt
func (h *SupplierHandler) Debt(c *gin.Context) {
	supplierID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	detail, err := h.reports.DebtDetail(c.Request.Context(), supplierID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, detail)
}

// Pay spreads a payment over the supplier's open restocks.
// POST /suppliers/:id/payments
func (h *SupplierHandler) Pay(c *gin.Context) {
	supplierID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.SupplierPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	slices, err := h.payer.Pay(c.Request.Context(), middleware.Actor(c), supplierID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, gin.H{"supplierId": supplierID, "allocations": slices})
}
