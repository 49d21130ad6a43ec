package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/domain/inventory"
	"retailcore/internal/infrastructure/http/v1/dto"
)

// RollService manages rolls of meter items.
type RollService interface {
	Create(ctx context.Context, req inventory.CreateRollRequest) (entity.Roll, error)
	ListByItem(ctx context.Context, itemID id.ID) ([]entity.Roll, error)
	Delete(ctx context.Context, rollID id.ID) error
}

// RollHandler handles HTTP requests for rolls.
type RollHandler struct {
	*BaseHandler
	service RollService
}

// NewRollHandler creates a new roll handler.
func NewRollHandler(base *BaseHandler, service RollService) *RollHandler {
	return &RollHandler{BaseHandler: base, service: service}
}

// Create adds a full roll.
// POST /rolls
func (h *RollHandler) Create(c *gin.Context) {
	var req dto.CreateRollRequest
	if !h.BindJSON(c, &req) {
		return
	}
	roll, err := h.service.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, roll)
}

// ListByItem lists the rolls of an item.
// GET /rolls/item/:itemId
func (h *RollHandler) ListByItem(c *gin.Context) {
	itemID, ok := h.ParamID(c, "itemId")
	if !ok {
		return
	}
	rolls, err := h.service.ListByItem(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(rolls))
}

// Delete removes a roll that no sale references.
// DELETE /rolls/:id
func (h *RollHandler) Delete(c *gin.Context) {
	rollID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), rollID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
