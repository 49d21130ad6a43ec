package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/domain/returns"
	"retailcore/internal/infrastructure/http/v1/dto"
)

// ReturnService runs the return workflow.
type ReturnService interface {
	Request(ctx context.Context, in returns.RequestInput) (entity.InventoryReturn, error)
	Resolve(ctx context.Context, returnID id.ID, in returns.ResolveInput) (entity.InventoryReturn, error)
	List(ctx context.Context, filter returns.ListFilter) ([]returns.Row, error)
}

// ReturnHandler handles HTTP requests for returns.
type ReturnHandler struct {
	*BaseHandler
	service ReturnService
}

// NewReturnHandler creates a new return handler.
func NewReturnHandler(base *BaseHandler, service ReturnService) *ReturnHandler {
	return &ReturnHandler{BaseHandler: base, service: service}
}

// List returns returns newest first.
// GET /returns
func (h *ReturnHandler) List(c *gin.Context) {
	var q dto.ReturnListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	rows, err := h.service.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(rows))
}

// Request opens a return for a sold unit.
// POST /returns
func (h *ReturnHandler) Request(c *gin.Context) {
	var req dto.ReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ret, err := h.service.Request(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, ret)
}

// Resolve closes a pending return.
// PATCH /returns/:id
func (h *ReturnHandler) Resolve(c *gin.Context) {
	returnID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	var req dto.ResolveReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	ret, err := h.service.Resolve(c.Request.Context(), returnID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, ret)
}
