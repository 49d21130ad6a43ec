package restocks

import (
	"time"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
	"retailcore/internal/domain/cashbox"
	"retailcore/internal/domain/receipt"
)

// NewItemInput defines an item created by the restock that brings it in.
type NewItemInput struct {
	Name           string
	Category       string
	StockUnit      entity.StockUnit
	PriceRetail    *types.Money
	PriceWholesale *types.Money
	// TrackUnits defaults to true for piece items.
	TrackUnits *bool
}

// LineInput is one purchased line. Exactly one of ItemID and NewItem is set.
type LineInput struct {
	ItemID  id.ID
	NewItem *NewItemInput
	Mode    entity.LineMode

	// EACH
	Quantity   int
	Serials    []string
	AutoSerial bool

	// METER: one new roll per length.
	NewRolls []types.Length

	UnitCost types.Money
}

// SupplierInput references a supplier by id, or by name (matched or
// created).
type SupplierInput struct {
	ID   *id.ID
	Name string
}

// RestockInput is a create request.
type RestockInput struct {
	UserID   id.ID
	Supplier SupplierInput
	Lines    []LineInput
	Tax      types.Money
	Payment  cashbox.PaymentInput
	Override *receipt.OverrideInput
	Note     string
	Date     *time.Time
}

// RestockView is a restock with lines, payments and derived status.
type RestockView struct {
	entity.Restock
	Supplier     *entity.Supplier     `json:"supplier,omitempty"`
	Lines        []entity.RestockLine `json:"lines"`
	Payments     []entity.Payment     `json:"payments"`
	Paid         types.Money          `json:"paid"`
	Outstanding  types.Money          `json:"outstanding"`
	StatusLabel  string               `json:"status"`
	ManualStatus *entity.ManualStatus `json:"manualStatus,omitempty"`
}
