package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
)

// PaymentKind tells which document a payment settles.
type PaymentKind string

const (
	PaymentSale    PaymentKind = "sale"
	PaymentRestock PaymentKind = "restock"
	PaymentOther   PaymentKind = "other"
)

// Payment is money received for a sale or paid for a restock.
type Payment struct {
	ID        id.ID       `db:"id" json:"id"`
	Kind      PaymentKind `db:"kind" json:"kind"`
	Amount    types.Money `db:"amount" json:"amount"`
	SaleID    *id.ID      `db:"sale_id" json:"saleId,omitempty"`
	RestockID *id.ID      `db:"restock_id" json:"restockId,omitempty"`
	CashboxID *id.ID      `db:"cashbox_id" json:"cashboxId,omitempty"`
	Note      *string     `db:"note" json:"note,omitempty"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
}

// Cashbox is a named cash-holding bucket. Its balance is always derived
// from entries.
type Cashbox struct {
	ID       id.ID  `db:"id" json:"id"`
	Code     string `db:"code" json:"code"`
	Label    string `db:"label" json:"label"`
	IsActive bool   `db:"is_active" json:"isActive"`
}

// EntryKind classifies a ledger entry.
type EntryKind string

const (
	EntryPayment    EntryKind = "payment"
	EntryExpense    EntryKind = "expense"
	EntryIncome     EntryKind = "income"
	EntryTransfer   EntryKind = "transfer"
	EntryAdjustment EntryKind = "adjustment"
)

// Direction of cash movement relative to the cashbox.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Reference types of ledger entries.
const (
	RefSale    = "sale"
	RefRestock = "restock"
	RefManual  = "manual"
)

// CashboxEntry is an append-only cash movement.
// OccurredAt is business time, CreatedAt is system time.
type CashboxEntry struct {
	ID            id.ID          `db:"id" json:"id"`
	CashboxID     id.ID          `db:"cashbox_id" json:"cashboxId"`
	Kind          EntryKind      `db:"kind" json:"kind"`
	Direction     Direction      `db:"direction" json:"direction"`
	Amount        types.Money    `db:"amount" json:"amount"`
	PaymentID     *id.ID         `db:"payment_id" json:"paymentId,omitempty"`
	ReferenceType *string        `db:"reference_type" json:"referenceType,omitempty"`
	ReferenceID   *id.ID         `db:"reference_id" json:"referenceId,omitempty"`
	OccurredAt    time.Time      `db:"occurred_at" json:"occurredAt"`
	Note          *string        `db:"note" json:"note,omitempty"`
	Meta          map[string]any `db:"meta" json:"meta,omitempty"`
	CreatedBy     *id.ID         `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
}

// Signed returns the amount with the sign of its direction.
func (e CashboxEntry) Signed() types.Money {
	if e.Direction == DirectionOut {
		return e.Amount.Neg()
	}
	return e.Amount
}

func decimalFromInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}
