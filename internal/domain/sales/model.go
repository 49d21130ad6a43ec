package sales

import (
	"time"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
	"retailcore/internal/domain/cashbox"
	"retailcore/internal/domain/pricing"
	"retailcore/internal/domain/receipt"
)

// LineInput is one requested sale line.
type LineInput struct {
	ItemID id.ID
	Mode   entity.LineMode

	// EACH. Quantity may be left 0 when UnitIDs are given.
	Quantity int
	UnitIDs  []id.ID

	// METER
	LengthM types.Length
	RollID  *id.ID

	Tier      pricing.Tier
	UnitPrice *types.Money
}

// CustomerInput references an existing customer by id, or by name with an
// optional phone. An empty input means a walk-in sale.
type CustomerInput struct {
	ID    *id.ID
	Name  string
	Phone string
}

// SaleInput is a create request. UserID is honored only for privileged
// actors.
type SaleInput struct {
	UserID      id.ID
	Customer    CustomerInput
	Lines       []LineInput
	Payment     cashbox.PaymentInput
	Override    *receipt.OverrideInput
	ReceiptType string
	Note        string
	Date        *time.Time
}

// EditInput replaces the lines of an existing sale.
type EditInput struct {
	SaleInput
	EditNote string
}

// SaleView is a sale with its lines, payments and derived status.
type SaleView struct {
	entity.Sale
	Customer     *entity.Customer     `json:"customer,omitempty"`
	Lines        []LineView           `json:"lines"`
	Payments     []entity.Payment     `json:"payments"`
	Paid         types.Money          `json:"paid"`
	Outstanding  types.Money          `json:"outstanding"`
	StatusLabel  string               `json:"status"`
	ManualStatus *entity.ManualStatus `json:"manualStatus,omitempty"`
}

// LineView is a sale line with its linked units.
type LineView struct {
	entity.SaleLine
	Units []UnitView `json:"units,omitempty"`
}

// UnitView is a unit sold on a line and its latest return, if any.
type UnitView struct {
	entity.InventoryUnit
	LatestReturn *ReturnRef `json:"latestReturn,omitempty"`
}

// ReturnRef identifies a return of a unit.
type ReturnRef struct {
	ID     id.ID               `json:"id"`
	Status entity.ReturnStatus `json:"status"`
}
