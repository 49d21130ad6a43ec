package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
	"retailcore/internal/domain/inventory"
)

func TestStockLedger(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	ledger := inventory.NewStockLedger(store)
	cable := seedItem(t, store, entity.Item{Name: "Cable", Unit: entity.StockUnitMeter, Stock: types.MustLength("100")})
	roll := seedRoll(t, store, cable, "100", "100", "1")

	t.Run("take never goes negative", func(t *testing.T) {
		err := ledger.Take(ctx, cable, types.MustLength("100.001"))
		assert.True(t, apperror.IsInsufficientInventory(err))
	})

	t.Run("put on a missing item", func(t *testing.T) {
		err := ledger.Put(ctx, 404, inventory.Pieces(1))
		assert.True(t, apperror.IsNotFound(err))
	})

	t.Run("cut then uncut", func(t *testing.T) {
		require.NoError(t, ledger.Cut(ctx, cable, roll, types.MustLength("30")))

		item, err := store.GetItem(ctx, cable.ID)
		require.NoError(t, err)
		r, err := store.GetRoll(ctx, roll.ID)
		require.NoError(t, err)
		assert.Equal(t, "70.000", item.Stock.StringFixed(3))
		assert.Equal(t, "70.000", r.RemainingM.StringFixed(3))

		require.NoError(t, ledger.Uncut(ctx, cable.ID, roll.ID, types.MustLength("30")))
		r, err = store.GetRoll(ctx, roll.ID)
		require.NoError(t, err)
		assert.True(t, r.RemainingM.Equal(r.LengthM))
	})

	t.Run("cut beyond remaining", func(t *testing.T) {
		err := ledger.Cut(ctx, cable, roll, types.MustLength("101"))
		assert.True(t, apperror.IsInsufficientInventory(err))
	})

	t.Run("uncut beyond length", func(t *testing.T) {
		err := ledger.Uncut(ctx, cable.ID, roll.ID, types.MustLength("1"))
		assert.True(t, apperror.IsInvalidRequest(err))
	})

	t.Run("mark units", func(t *testing.T) {
		plug := seedItem(t, store, entity.Item{Name: "Plug", Stock: inventory.Pieces(2), TrackUnits: true})
		units := seedUnits(t, store, plug, "1", "1")
		require.NoError(t, ledger.MarkUnits(ctx, nil, entity.UnitSold))
		require.NoError(t, ledger.MarkUnits(ctx, []id.ID{units[0].ID}, entity.UnitSold))

		got, err := store.GetUnit(ctx, units[0].ID)
		require.NoError(t, err)
		assert.Equal(t, entity.UnitSold, got.Status)

		err = ledger.MarkUnits(ctx, []id.ID{999}, entity.UnitSold)
		assert.True(t, apperror.IsNotFound(err))
	})
}

func TestRollService(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	svc := inventory.NewRollService(store, store)
	cable := seedItem(t, store, entity.Item{Name: "Cable", Unit: entity.StockUnitMeter, Stock: types.Zero()})

	stockOf := func() string {
		item, err := store.GetItem(ctx, cable.ID)
		require.NoError(t, err)
		return item.Stock.StringFixed(3)
	}

	first, err := svc.Create(ctx, inventory.CreateRollRequest{ItemID: cable.ID, LengthM: types.MustLength("50"), CostPerMeter: types.Ptr(types.MustMoney("1.255"))})
	require.NoError(t, err)
	assert.Equal(t, "1.26", first.CostPerMeter.StringFixed(2))
	second, err := svc.Create(ctx, inventory.CreateRollRequest{ItemID: cable.ID, LengthM: types.MustLength("25.5")})
	require.NoError(t, err)
	assert.Equal(t, "75.500", stockOf())

	rolls, err := svc.ListByItem(ctx, cable.ID)
	require.NoError(t, err)
	require.Len(t, rolls, 2)
	assert.Equal(t, first.ID, rolls[0].ID)

	t.Run("validation", func(t *testing.T) {
		piece := seedItem(t, store, entity.Item{Name: "Plug"})
		_, err := svc.Create(ctx, inventory.CreateRollRequest{ItemID: piece.ID, LengthM: types.MustLength("1")})
		assert.True(t, apperror.IsInvalidRequest(err))

		_, err = svc.Create(ctx, inventory.CreateRollRequest{ItemID: cable.ID, LengthM: types.MustLength("-1")})
		assert.True(t, apperror.IsInvalidRequest(err))

		_, err = svc.Create(ctx, inventory.CreateRollRequest{ItemID: 404, LengthM: types.MustLength("1")})
		assert.True(t, apperror.IsNotFound(err))

		_, err = svc.ListByItem(ctx, 404)
		assert.True(t, apperror.IsNotFound(err))
	})

	t.Run("delete stops at zero stock", func(t *testing.T) {
		require.NoError(t, inventory.NewStockLedger(store).Take(ctx, cable, types.MustLength("70")))
		require.NoError(t, svc.Delete(ctx, first.ID))
		assert.Equal(t, "0.000", stockOf())

		_, err := store.GetRoll(ctx, first.ID)
		assert.True(t, apperror.IsNotFound(err))
	})

	t.Run("roll with sales is kept", func(t *testing.T) {
		sale := entity.Sale{Number: "S-2026-000001"}
		require.NoError(t, store.CreateSale(ctx, &sale))
		require.NoError(t, store.CreateSaleLine(ctx, &entity.SaleLine{SaleID: sale.ID, ItemID: cable.ID, RollID: id.Ptr(second.ID)}))

		err := svc.Delete(ctx, second.ID)
		assert.True(t, apperror.IsInvalidRequest(err))
		_, err = store.GetRoll(ctx, second.ID)
		assert.NoError(t, err)
	})
}
