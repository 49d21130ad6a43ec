package entity

import (
	"time"

	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
)

// StockUnit is the unit an item's aggregate stock is counted in.
type StockUnit string

const (
	StockUnitPiece StockUnit = "pcs"
	StockUnitMeter StockUnit = "m"
)

// Item is a sellable product.
type Item struct {
	ID       id.ID     `db:"id" json:"id"`
	Name     string    `db:"name" json:"name"`
	Category *string   `db:"category" json:"category,omitempty"`
	Unit     StockUnit `db:"stock_unit" json:"stockUnit"`

	// Stock is pieces for EACH items and meters for meter items.
	// For meter items it always equals the sum of the rolls' remaining length.
	Stock types.Length `db:"stock" json:"stock"`

	PriceRetail    *types.Money `db:"price_retail" json:"priceRetail,omitempty"`
	PriceWholesale *types.Money `db:"price_wholesale" json:"priceWholesale,omitempty"`
	// Price is the single pre-tier price kept for older items.
	Price *types.Money `db:"price" json:"price,omitempty"`

	// TrackUnits marks EACH items whose stock is backed by InventoryUnits.
	TrackUnits bool      `db:"track_units" json:"trackUnits"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// IsMeter reports whether the item is sold by length.
func (i Item) IsMeter() bool {
	return i.Unit == StockUnitMeter
}

// UnitTracked reports whether EACH sales must claim specific inventory units.
func (i Item) UnitTracked() bool {
	return !i.IsMeter() && i.TrackUnits
}

// Roll is a length-tracked stock object of a meter item.
// Invariant: 0 <= RemainingM <= LengthM.
type Roll struct {
	ID           id.ID        `db:"id" json:"id"`
	ItemID       id.ID        `db:"item_id" json:"itemId"`
	LengthM      types.Length `db:"length_m" json:"lengthM"`
	RemainingM   types.Length `db:"remaining_m" json:"remainingM"`
	CostPerMeter *types.Money `db:"cost_per_meter" json:"costPerMeter,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"createdAt"`
}

// UnitStatus is the lifecycle state of an inventory unit.
type UnitStatus string

const (
	UnitAvailable UnitStatus = "available"
	UnitReserved  UnitStatus = "reserved"
	UnitSold      UnitStatus = "sold"
	UnitReturned  UnitStatus = "returned"
	UnitDefective UnitStatus = "defective"
)

// InventoryUnit is one trackable physical instance of an item.
type InventoryUnit struct {
	ID            id.ID        `db:"id" json:"id"`
	ItemID        id.ID        `db:"item_id" json:"itemId"`
	RestockLineID *id.ID       `db:"restock_line_id" json:"restockLineId,omitempty"`
	RollID        *id.ID       `db:"roll_id" json:"rollId,omitempty"`
	Barcode       *string      `db:"barcode" json:"barcode,omitempty"`
	IsPlaceholder bool         `db:"is_placeholder" json:"isPlaceholder"`
	Status        UnitStatus   `db:"status" json:"status"`
	CostEach      *types.Money `db:"cost_each" json:"costEach,omitempty"`
	CreatedAt     time.Time    `db:"created_at" json:"createdAt"`
}
