package dto

import (
	"retailcore/internal/core/types"
	"retailcore/internal/domain/cashbox"
	"retailcore/internal/domain/receipt"
)

// PaymentRequest records a further payment against a sale or restock.
type PaymentRequest struct {
	Amount    types.Money `json:"amount" binding:"required,money"`
	PayMethod string      `json:"payMethod,omitempty"`
	Note      string      `json:"note,omitempty"`
	Date      string      `json:"paymentDate,omitempty"`
	CashboxRef
}

// ToInput converts the request to a domain payment.
func (r *PaymentRequest) ToInput() (cashbox.PaymentInput, error) {
	fields := PaymentFields{
		Paid:        &r.Amount,
		PayMethod:   r.PayMethod,
		PaymentNote: r.Note,
		PaymentDate: r.Date,
		CashboxRef:  r.CashboxRef,
	}
	return fields.Payment()
}

// StatusOverrideRequest pins or clears the status of a document.
type StatusOverrideRequest struct {
	StatusOverrideFields
}

// ToInput returns nil when the override is cleared.
func (r *StatusOverrideRequest) ToInput() *receipt.OverrideInput {
	return r.Override()
}
