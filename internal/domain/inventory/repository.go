// Package inventory owns stock quantities, rolls and inventory units:
// the stock ledger that mutates them and the allocator that picks which
// units or roll satisfy a sale line.
package inventory

import (
	"context"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
)

// Repository defines storage operations for items, rolls and units.
// Methods run in the transaction carried by ctx, if any.
type Repository interface {
	// Items

	GetItem(ctx context.Context, itemID id.ID) (entity.Item, error)
	// GetItems returns the requested items keyed by id; absent ids are
	// simply missing from the map.
	GetItems(ctx context.Context, ids []id.ID) (map[id.ID]entity.Item, error)
	CreateItem(ctx context.Context, item *entity.Item) error

	// AddItemStock atomically adds delta to the item's stock unless the
	// result would be negative. Reports whether the row was changed.
	AddItemStock(ctx context.Context, itemID id.ID, delta types.Length) (bool, error)

	// Rolls

	GetRoll(ctx context.Context, rollID id.ID) (entity.Roll, error)
	// GetRollForUpdate reads a roll with a row lock.
	GetRollForUpdate(ctx context.Context, rollID id.ID) (entity.Roll, error)
	// FindRollForCut locks and returns the oldest roll of the item with at
	// least minRemaining meters left, skipping the excluded rolls.
	FindRollForCut(ctx context.Context, itemID id.ID, minRemaining types.Length, exclude []id.ID) (entity.Roll, bool, error)
	ListRolls(ctx context.Context, itemID id.ID) ([]entity.Roll, error)
	CreateRoll(ctx context.Context, roll *entity.Roll) error
	// AddRollRemaining atomically adds delta to the remaining length while
	// keeping 0 <= remaining <= length. Reports whether the row was changed.
	AddRollRemaining(ctx context.Context, rollID id.ID, delta types.Length) (bool, error)
	DeleteRoll(ctx context.Context, rollID id.ID) error
	// RollHasSales reports whether any sale line was cut from the roll.
	RollHasSales(ctx context.Context, rollID id.ID) (bool, error)

	// Units

	GetUnit(ctx context.Context, unitID id.ID) (entity.InventoryUnit, error)
	GetUnits(ctx context.Context, ids []id.ID) ([]entity.InventoryUnit, error)
	GetUnitForUpdate(ctx context.Context, unitID id.ID) (entity.InventoryUnit, error)
	// GetUnitsForUpdate locks and returns the units that exist among ids.
	GetUnitsForUpdate(ctx context.Context, ids []id.ID) ([]entity.InventoryUnit, error)
	// ClaimOldestUnits locks up to limit available units of the item, oldest
	// first (created_at, id), skipping excluded ids and rows locked by other
	// transactions.
	ClaimOldestUnits(ctx context.Context, itemID id.ID, limit int, exclude []id.ID) ([]entity.InventoryUnit, error)
	// CreateUnits inserts units and assigns their ids.
	CreateUnits(ctx context.Context, units []*entity.InventoryUnit) error
	SetUnitStatus(ctx context.Context, ids []id.ID, status entity.UnitStatus) error
	// ExistingBarcodes returns the subset of barcodes already in use.
	ExistingBarcodes(ctx context.Context, barcodes []string) ([]string, error)
	// LatestReturns returns the newest return of each unit that has one.
	LatestReturns(ctx context.Context, unitIDs []id.ID) (map[id.ID]entity.InventoryReturn, error)
}
