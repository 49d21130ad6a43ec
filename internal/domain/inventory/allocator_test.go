package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
	"retailcore/internal/domain/inventory"
	"retailcore/internal/infrastructure/storage/memory"
)

func newStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.New()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time {
		at = at.Add(time.Second)
		return at
	})
	return store
}

func seedItem(t *testing.T, store *memory.Store, item entity.Item) entity.Item {
	t.Helper()
	if item.Unit == "" {
		item.Unit = entity.StockUnitPiece
	}
	require.NoError(t, store.CreateItem(context.Background(), &item))
	return item
}

func seedUnits(t *testing.T, store *memory.Store, item entity.Item, costs ...string) []entity.InventoryUnit {
	t.Helper()
	units := make([]*entity.InventoryUnit, len(costs))
	for i, c := range costs {
		units[i] = &entity.InventoryUnit{ItemID: item.ID, Status: entity.UnitAvailable, CostEach: types.Ptr(types.MustMoney(c))}
	}
	require.NoError(t, store.CreateUnits(context.Background(), units))
	out := make([]entity.InventoryUnit, len(units))
	for i, u := range units {
		out[i] = *u
	}
	return out
}

func seedRoll(t *testing.T, store *memory.Store, item entity.Item, length, remaining, cost string) entity.Roll {
	t.Helper()
	roll := entity.Roll{
		ItemID:       item.ID,
		LengthM:      types.MustLength(length),
		RemainingM:   types.MustLength(remaining),
		CostPerMeter: types.Ptr(types.MustMoney(cost)),
	}
	require.NoError(t, store.CreateRoll(context.Background(), &roll))
	return roll
}

func inTx(t *testing.T, store *memory.Store, fn func(ctx context.Context) error) error {
	t.Helper()
	return store.RunInTransaction(context.Background(), fn)
}

func TestAllocateEachTakesOldestUnitsAcrossLines(t *testing.T) {
	store := newStore(t)
	item := seedItem(t, store, entity.Item{Name: "Switch", Stock: types.MustLength("3"), TrackUnits: true})
	units := seedUnits(t, store, item, "2.00", "4.00")
	late := seedUnits(t, store, item, "9.00")

	err := inTx(t, store, func(ctx context.Context) error {
		session := inventory.NewAllocator(store).Begin(nil)

		first, err := session.Allocate(ctx, inventory.LineRequest{Item: item, Mode: entity.ModeEach, Quantity: 2})
		require.NoError(t, err)
		assert.Equal(t, []id.ID{units[0].ID, units[1].ID}, first.UnitIDs())
		assert.Equal(t, "3.00", first.CostEach().StringFixed(2))

		second, err := session.Allocate(ctx, inventory.LineRequest{Item: item, Mode: entity.ModeEach, Quantity: 1})
		require.NoError(t, err)
		assert.Equal(t, []id.ID{late[0].ID}, second.UnitIDs())

		_, err = session.Allocate(ctx, inventory.LineRequest{Item: item, Mode: entity.ModeEach, Quantity: 1})
		assert.True(t, apperror.IsInsufficientInventory(err))
		return nil
	})
	require.NoError(t, err)
}

func TestAllocateEachPinnedUnits(t *testing.T) {
	store := newStore(t)
	item := seedItem(t, store, entity.Item{Name: "Router", Stock: types.MustLength("2"), TrackUnits: true})
	units := seedUnits(t, store, item, "10", "12")
	require.NoError(t, store.SetUnitStatus(context.Background(), []id.ID{units[1].ID}, entity.UnitSold))

	t.Run("unavailable unit is rejected", func(t *testing.T) {
		err := inTx(t, store, func(ctx context.Context) error {
			_, err := inventory.NewAllocator(store).Begin(nil).Allocate(ctx, inventory.LineRequest{
				Item: item, Mode: entity.ModeEach, UnitIDs: []id.ID{units[1].ID},
			})
			return err
		})
		assert.True(t, apperror.IsInvalidRequest(err))
	})

	t.Run("unit held by the edited document is allowed", func(t *testing.T) {
		err := inTx(t, store, func(ctx context.Context) error {
			alloc, err := inventory.NewAllocator(store).Begin([]id.ID{units[1].ID}).Allocate(ctx, inventory.LineRequest{
				Item: item, Mode: entity.ModeEach, UnitIDs: []id.ID{units[1].ID, units[1].ID},
			})
			require.NoError(t, err)
			assert.Equal(t, 1, alloc.Quantity)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("quantity must match the pinned units", func(t *testing.T) {
		err := inTx(t, store, func(ctx context.Context) error {
			_, err := inventory.NewAllocator(store).Begin(nil).Allocate(ctx, inventory.LineRequest{
				Item: item, Mode: entity.ModeEach, Quantity: 2, UnitIDs: []id.ID{units[0].ID},
			})
			return err
		})
		assert.True(t, apperror.IsInvalidRequest(err))
	})

	t.Run("same unit on two lines", func(t *testing.T) {
		err := inTx(t, store, func(ctx context.Context) error {
			session := inventory.NewAllocator(store).Begin(nil)
			_, err := session.Allocate(ctx, inventory.LineRequest{Item: item, Mode: entity.ModeEach, UnitIDs: []id.ID{units[0].ID}})
			require.NoError(t, err)
			_, err = session.Allocate(ctx, inventory.LineRequest{Item: item, Mode: entity.ModeEach, UnitIDs: []id.ID{units[0].ID}})
			return err
		})
		assert.True(t, apperror.IsInvalidRequest(err))
	})
}

func TestAllocateEachUntrackedChecksStock(t *testing.T) {
	store := newStore(t)
	item := seedItem(t, store, entity.Item{Name: "Cable tie", Stock: types.MustLength("5")})

	err := inTx(t, store, func(ctx context.Context) error {
		session := inventory.NewAllocator(store).Begin(nil)
		alloc, err := session.Allocate(ctx, inventory.LineRequest{Item: item, Mode: entity.ModeEach, Quantity: 4})
		require.NoError(t, err)
		assert.Empty(t, alloc.Units)
		assert.Nil(t, alloc.CostEach())

		_, err = session.Allocate(ctx, inventory.LineRequest{Item: item, Mode: entity.ModeEach, Quantity: 2})
		assert.True(t, apperror.IsInsufficientInventory(err))

		_, err = session.Allocate(ctx, inventory.LineRequest{Item: item, Mode: entity.ModeEach, Quantity: 0})
		assert.True(t, apperror.IsInvalidRequest(err))
		return nil
	})
	require.NoError(t, err)
}

func TestAllocateMeterSessionRolls(t *testing.T) {
	store := newStore(t)
	item := seedItem(t, store, entity.Item{Name: "Cable", Unit: entity.StockUnitMeter, Stock: types.MustLength("150")})
	r1 := seedRoll(t, store, item, "50", "50", "1.50")
	r2 := seedRoll(t, store, item, "100", "100", "1.20")

	err := inTx(t, store, func(ctx context.Context) error {
		session := inventory.NewAllocator(store).Begin(nil)

		first, err := session.Allocate(ctx, inventory.LineRequest{Item: item, Mode: entity.ModeMeter, LengthM: types.MustLength("40")})
		require.NoError(t, err)
		assert.Equal(t, r1.ID, first.Roll.ID)
		assert.Equal(t, "1.50", first.CostEach().StringFixed(2))

		// r1 has 10 m left in this session, so 20 m must come from r2.
		second, err := session.Allocate(ctx, inventory.LineRequest{Item: item, Mode: entity.ModeMeter, LengthM: types.MustLength("20")})
		require.NoError(t, err)
		assert.Equal(t, r2.ID, second.Roll.ID)

		third, err := session.Allocate(ctx, inventory.LineRequest{Item: item, Mode: entity.ModeMeter, LengthM: types.MustLength("10")})
		require.NoError(t, err)
		assert.Equal(t, r1.ID, third.Roll.ID)

		_, err = session.Allocate(ctx, inventory.LineRequest{Item: item, Mode: entity.ModeMeter, LengthM: types.MustLength("81")})
		assert.True(t, apperror.IsInsufficientInventory(err))
		return nil
	})
	require.NoError(t, err)

	stored, err := store.GetRoll(context.Background(), r1.ID)
	require.NoError(t, err)
	assert.True(t, types.MustLength("50").Equal(stored.RemainingM), "allocation must not mutate storage")
}

func TestAllocateMeterValidation(t *testing.T) {
	store := newStore(t)
	cable := seedItem(t, store, entity.Item{Name: "Cable", Unit: entity.StockUnitMeter, Stock: types.MustLength("10")})
	other := seedItem(t, store, entity.Item{Name: "Wire", Unit: entity.StockUnitMeter, Stock: types.MustLength("10")})
	roll := seedRoll(t, store, cable, "10", "10", "1")
	foreign := seedRoll(t, store, other, "10", "10", "1")
	piece := seedItem(t, store, entity.Item{Name: "Plug", Stock: types.MustLength("10")})

	tests := []struct {
		name    string
		line    inventory.LineRequest
		invalid bool
	}{
		{"each on meter item", inventory.LineRequest{Item: cable, Mode: entity.ModeEach, Quantity: 1}, true},
		{"meter on piece item", inventory.LineRequest{Item: piece, Mode: entity.ModeMeter, LengthM: types.MustLength("1")}, true},
		{"unknown mode", inventory.LineRequest{Item: piece, Mode: "BOX", Quantity: 1}, true},
		{"zero length", inventory.LineRequest{Item: cable, Mode: entity.ModeMeter, LengthM: types.Zero()}, true},
		{"too many decimals", inventory.LineRequest{Item: cable, Mode: entity.ModeMeter, LengthM: types.MustLength("1.0005")}, true},
		{"roll of another item", inventory.LineRequest{Item: cable, Mode: entity.ModeMeter, LengthM: types.MustLength("1"), RollID: id.Ptr(foreign.ID)}, true},
		{"missing roll", inventory.LineRequest{Item: cable, Mode: entity.ModeMeter, LengthM: types.MustLength("1"), RollID: id.Ptr(999)}, true},
		{"pinned roll too short", inventory.LineRequest{Item: cable, Mode: entity.ModeMeter, LengthM: types.MustLength("11"), RollID: id.Ptr(roll.ID)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := inTx(t, store, func(ctx context.Context) error {
				_, err := inventory.NewAllocator(store).Begin(nil).Allocate(ctx, tt.line)
				return err
			})
			require.Error(t, err)
			if tt.invalid {
				assert.True(t, apperror.IsInvalidRequest(err), "got %v", err)
			} else {
				assert.True(t, apperror.IsInsufficientInventory(err), "got %v", err)
			}
		})
	}
}
