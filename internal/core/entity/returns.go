package entity

import (
	"time"

	"retailcore/internal/core/id"
)

// ReturnOutcome is what the customer asked to happen with the unit.
type ReturnOutcome string

const (
	OutcomeRestock   ReturnOutcome = "restock"
	OutcomeDefective ReturnOutcome = "defective"
)

// ReturnStatus is the state of an inventory return.
type ReturnStatus string

const (
	ReturnPending            ReturnStatus = "pending"
	ReturnRestocked          ReturnStatus = "restocked"
	ReturnTrashed            ReturnStatus = "trashed"
	ReturnReturnedToSupplier ReturnStatus = "returned_to_supplier"
)

// InventoryReturn tracks a sold unit coming back.
type InventoryReturn struct {
	ID               id.ID         `db:"id" json:"id"`
	UnitID           id.ID         `db:"unit_id" json:"unitId"`
	RequestedOutcome ReturnOutcome `db:"requested_outcome" json:"requestedOutcome"`
	Status           ReturnStatus  `db:"status" json:"status"`
	SupplierID       *id.ID        `db:"supplier_id" json:"supplierId,omitempty"`
	Note             *string       `db:"note" json:"note,omitempty"`
	SupplierNote     *string       `db:"supplier_note" json:"supplierNote,omitempty"`
	CreatedAt        time.Time     `db:"created_at" json:"createdAt"`
	ResolvedAt       *time.Time    `db:"resolved_at" json:"resolvedAt,omitempty"`
}
