package dto

import (
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
	"retailcore/internal/domain/suppliers"
)

// SupplierPaymentRequest pays down supplier debt. Allocations steer the
// payment to specific restocks before the oldest-first spill.
type SupplierPaymentRequest struct {
	PaymentRequest
	Allocations []AllocationRequest `json:"allocations,omitempty" binding:"omitempty,dive"`
}

// AllocationRequest is one allocation hint.
type AllocationRequest struct {
	RestockID id.ID       `json:"restockId" binding:"required"`
	Amount    types.Money `json:"amount" binding:"money"`
}

// ToInput converts the request to a domain payment.
func (r *SupplierPaymentRequest) ToInput() (suppliers.DebtPayment, error) {
	payment, err := r.PaymentRequest.ToInput()
	if err != nil {
		return suppliers.DebtPayment{}, err
	}
	out := suppliers.DebtPayment{PaymentInput: payment}
	for _, a := range r.Allocations {
		out.Hints = append(out.Hints, suppliers.Hint{RestockID: a.RestockID, Amount: a.Amount})
	}
	return out, nil
}
