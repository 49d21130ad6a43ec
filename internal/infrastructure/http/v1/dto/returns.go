package dto

import (
	"strings"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/domain/returns"
)

// ReturnRequest opens a return for a sold unit.
type ReturnRequest struct {
	UnitID           id.ID  `json:"unitId" binding:"required"`
	RequestedOutcome string `json:"requestedOutcome" binding:"required,oneof=restock defective"`
	Note             string `json:"note,omitempty"`
}

// ToInput converts the request to a domain input.
func (r *ReturnRequest) ToInput() returns.RequestInput {
	return returns.RequestInput{
		UnitID:           r.UnitID,
		RequestedOutcome: entity.ReturnOutcome(r.RequestedOutcome),
		Note:             strings.TrimSpace(r.Note),
	}
}

// ResolveReturnRequest closes a pending return. A nil note keeps the one
// recorded when the return was opened.
type ResolveReturnRequest struct {
	Action       string  `json:"action" binding:"required"`
	Note         *string `json:"note,omitempty"`
	SupplierID   *id.ID  `json:"supplierId,omitempty"`
	SupplierNote string  `json:"supplierNote,omitempty"`
}

// ToInput converts the request to a domain input.
func (r *ResolveReturnRequest) ToInput() (returns.ResolveInput, error) {
	action, ok := returns.ParseAction(r.Action)
	if !ok {
		return returns.ResolveInput{}, apperror.NewInvalidRequest("Unknown action %q", r.Action)
	}
	return returns.ResolveInput{
		Action:       action,
		Note:         r.Note,
		SupplierID:   r.SupplierID,
		SupplierNote: strings.TrimSpace(r.SupplierNote),
	}, nil
}

// ReturnListQuery filters the return list.
type ReturnListQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=pending restocked trashed returned_to_supplier"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// ToFilter converts the query to a domain filter.
func (q *ReturnListQuery) ToFilter() returns.ListFilter {
	return returns.ListFilter{Status: entity.ReturnStatus(q.Status), Limit: q.Limit}
}
