package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"retailcore/internal/domain/reports"
	"retailcore/internal/infrastructure/http/v1/dto"
)

// ReceiptReports lists sales and restocks together.
type ReceiptReports interface {
	Receipts(ctx context.Context, filter reports.ReceiptFilter) ([]reports.Receipt, error)
}

// ReceiptHandler serves the unified receipts list.
type ReceiptHandler struct {
	*BaseHandler
	reports ReceiptReports
}

// NewReceiptHandler creates a new receipt handler.
func NewReceiptHandler(base *BaseHandler, reports ReceiptReports) *ReceiptHandler {
	return &ReceiptHandler{BaseHandler: base, reports: reports}
}

// List returns receipts newest first.
// GET /receipts
func (h *ReceiptHandler) List(c *gin.Context) {
	var q dto.ReceiptQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	rows, err := h.reports.Receipts(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(rows))
}
