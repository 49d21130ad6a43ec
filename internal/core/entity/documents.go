package entity

import (
	"time"

	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
)

// Sale is a sale transaction header.
type Sale struct {
	ID          id.ID         `db:"id" json:"id"`
	Number      string        `db:"number" json:"number"`
	UserID      id.ID         `db:"user_id" json:"userId"`
	CustomerID  *id.ID        `db:"customer_id" json:"customerId,omitempty"`
	Total       types.Money   `db:"total" json:"total"`
	ReceiptType string        `db:"receipt_type" json:"receiptType"`
	Note        *string       `db:"note" json:"note,omitempty"`
	Status      ReceiptStatus `db:"status" json:"statusCode"`
	Date        time.Time     `db:"date" json:"date"`
	StatusColumns

	LastEditNote *string    `db:"last_edit_note" json:"lastEditNote,omitempty"`
	LastEditAt   *time.Time `db:"last_edit_at" json:"lastEditAt,omitempty"`
	LastEditUser *id.ID     `db:"last_edit_user_id" json:"lastEditUserId,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// SaleLine is one line of a sale.
// EACH lines carry Quantity and optional linked units; METER lines carry
// LengthM and the roll they were cut from, with Quantity fixed at 1.
type SaleLine struct {
	ID        id.ID         `db:"id" json:"id"`
	SaleID    id.ID         `db:"sale_id" json:"saleId"`
	Position  int           `db:"position" json:"position"`
	ItemID    id.ID         `db:"item_id" json:"itemId"`
	Mode      LineMode      `db:"mode" json:"mode"`
	Quantity  int           `db:"quantity" json:"quantity"`
	LengthM   *types.Length `db:"length_m" json:"lengthM,omitempty"`
	RollID    *id.ID        `db:"roll_id" json:"rollId,omitempty"`
	PriceEach types.Money   `db:"price_each" json:"priceEach"`
	CostEach  *types.Money  `db:"cost_each" json:"costEach,omitempty"`

	// UnitIDs are the inventory units linked to the line (sale_line_units).
	UnitIDs []id.ID `db:"-" json:"inventoryUnitIds,omitempty"`
}

// Amount is the billed figure of the line: price × quantity or length.
func (l SaleLine) Amount() types.Money {
	if l.Mode == ModeMeter && l.LengthM != nil {
		return l.PriceEach.Mul(*l.LengthM)
	}
	return l.PriceEach.Mul(types.Money(decimalFromInt(l.Quantity)))
}

// Restock is a purchase from a supplier.
type Restock struct {
	ID         id.ID         `db:"id" json:"id"`
	Number     string        `db:"number" json:"number"`
	SupplierID *id.ID        `db:"supplier_id" json:"supplierId,omitempty"`
	UserID     *id.ID        `db:"user_id" json:"userId,omitempty"`
	Date       *time.Time    `db:"date" json:"date,omitempty"`
	Subtotal   types.Money   `db:"subtotal" json:"subtotal"`
	Tax        types.Money   `db:"tax" json:"tax"`
	Total      types.Money   `db:"total" json:"total"`
	Note       *string       `db:"note" json:"note,omitempty"`
	Status     ReceiptStatus `db:"status" json:"statusCode"`
	StatusColumns

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// EffectiveDate is the business date used for oldest-first ordering.
func (r Restock) EffectiveDate() time.Time {
	if r.Date != nil {
		return *r.Date
	}
	return r.CreatedAt
}

// RestockLine is one purchased line.
type RestockLine struct {
	ID        id.ID         `db:"id" json:"id"`
	RestockID id.ID         `db:"restock_id" json:"restockId"`
	ItemID    id.ID         `db:"item_id" json:"itemId"`
	Mode      LineMode      `db:"mode" json:"mode"`
	Quantity  int           `db:"quantity" json:"quantity"`
	LengthM   *types.Length `db:"length_m" json:"lengthM,omitempty"`
	UnitCost  types.Money   `db:"unit_cost" json:"unitCost"`

	// RollID is the roll a METER line created (restock_rolls).
	RollID *id.ID `db:"-" json:"rollId,omitempty"`
}
