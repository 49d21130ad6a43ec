package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
)

// StockLedger applies stock, roll and unit mutations.
// Every change is an atomic increment or decrement guarded in SQL, never a
// read-modify-write in memory. Callers run it inside their transaction.
type StockLedger struct {
	repo Repository
}

// NewStockLedger creates a stock ledger.
func NewStockLedger(repo Repository) *StockLedger {
	return &StockLedger{repo: repo}
}

// Take removes qty from the item's stock.
func (l *StockLedger) Take(ctx context.Context, item entity.Item, qty types.Length) error {
	ok, err := l.repo.AddItemStock(ctx, item.ID, qty.Neg())
	if err != nil {
		return fmt.Errorf("decrement stock of item %d: %w", item.ID, err)
	}
	if !ok {
		return apperror.NewInsufficientInventory("Not enough stock for %q", item.Name).
			WithDetail("itemId", item.ID).
			WithDetail("requested", qty)
	}
	return nil
}

// Put adds qty to the item's stock.
func (l *StockLedger) Put(ctx context.Context, itemID id.ID, qty types.Length) error {
	ok, err := l.repo.AddItemStock(ctx, itemID, qty)
	if err != nil {
		return fmt.Errorf("increment stock of item %d: %w", itemID, err)
	}
	if !ok {
		return apperror.NewNotFound("item", itemID)
	}
	return nil
}

// Cut removes length meters from a roll and from its item's stock.
func (l *StockLedger) Cut(ctx context.Context, item entity.Item, roll entity.Roll, length types.Length) error {
	ok, err := l.repo.AddRollRemaining(ctx, roll.ID, length.Neg())
	if err != nil {
		return fmt.Errorf("cut roll %d: %w", roll.ID, err)
	}
	if !ok {
		return apperror.NewInsufficientInventory("Roll %d has less than %s m left", roll.ID, length.StringFixed(types.LengthPlaces)).
			WithDetail("rollId", roll.ID).
			WithDetail("requested", length)
	}
	return l.Take(ctx, item, length)
}

// Uncut gives length meters back to a roll and to the item's stock.
func (l *StockLedger) Uncut(ctx context.Context, itemID, rollID id.ID, length types.Length) error {
	ok, err := l.repo.AddRollRemaining(ctx, rollID, length)
	if err != nil {
		return fmt.Errorf("restore roll %d: %w", rollID, err)
	}
	if !ok {
		return apperror.NewInvalidRequest("Roll %d cannot take back %s m", rollID, length.StringFixed(types.LengthPlaces))
	}
	return l.Put(ctx, itemID, length)
}

// MarkUnits moves units to status.
func (l *StockLedger) MarkUnits(ctx context.Context, ids []id.ID, status entity.UnitStatus) error {
	if len(ids) == 0 {
		return nil
	}
	if err := l.repo.SetUnitStatus(ctx, ids, status); err != nil {
		return fmt.Errorf("set units %s: %w", status, err)
	}
	return nil
}

// Pieces converts a piece count to a stock quantity.
func Pieces(n int) types.Length {
	return decimal.NewFromInt(int64(n))
}
