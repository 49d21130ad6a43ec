package dto

import (
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
	"retailcore/internal/domain/inventory"
)

// CreateRollRequest adds a full roll to a meter item.
type CreateRollRequest struct {
	ItemID       id.ID        `json:"itemId" binding:"required"`
	LengthM      types.Length `json:"length_m" binding:"required,length"`
	CostPerMeter *types.Money `json:"costPerMeter,omitempty" binding:"omitempty,money"`
}

// ToInput converts the request to a domain request.
func (r *CreateRollRequest) ToInput() inventory.CreateRollRequest {
	return inventory.CreateRollRequest{
		ItemID:       r.ItemID,
		LengthM:      r.LengthM,
		CostPerMeter: r.CostPerMeter,
	}
}
