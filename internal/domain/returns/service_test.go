package returns_test

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
	"retailcore/internal/domain/cashbox"
	"retailcore/internal/domain/returns"
	"retailcore/internal/domain/sales"
	"retailcore/internal/infrastructure/storage/memory"
)

type fixture struct {
	store *memory.Store
	svc   *returns.Service
	item  entity.Item
	units []id.ID
	sale  *sales.SaleView
}

// newFixture sells three of four tracked units.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	at := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time {
		at = at.Add(time.Second)
		return at
	})
	_, err := store.SeedCashboxes(ctx)
	require.NoError(t, err)

	price := types.MustMoney("25")
	item := entity.Item{Name: "Kettle", Unit: entity.StockUnitPiece, Stock: types.MustLength("4"), TrackUnits: true, PriceRetail: &price}
	require.NoError(t, store.CreateItem(ctx, &item))
	units := make([]*entity.InventoryUnit, 4)
	for i := range units {
		units[i] = &entity.InventoryUnit{ItemID: item.ID, Status: entity.UnitAvailable, Barcode: entity.StrPtr("K-" + string(rune('A'+i)))}
	}
	require.NoError(t, store.CreateUnits(ctx, units))

	salesSvc := sales.NewService(store, store, store, cashbox.NewLedger(store, store, nil), store, store)
	sale, err := salesSvc.Create(ctx, entity.Actor{ID: 1}, sales.SaleInput{
		Lines: []sales.LineInput{{ItemID: item.ID, Quantity: 3}},
	})
	require.NoError(t, err)

	ids := make([]id.ID, len(units))
	for i, u := range units {
		ids[i] = u.ID
	}
	return &fixture{store: store, svc: returns.NewService(store, store, store, store), item: item, units: ids, sale: sale}
}

func (f *fixture) unitStatus(t *testing.T, unitID id.ID) entity.UnitStatus {
	t.Helper()
	u, err := f.store.GetUnit(context.Background(), unitID)
	require.NoError(t, err)
	return u.Status
}

func (f *fixture) stock(t *testing.T) string {
	t.Helper()
	item, err := f.store.GetItem(context.Background(), f.item.ID)
	require.NoError(t, err)
	return item.Stock.StringFixed(0)
}

func TestRequest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ret, err := f.svc.Request(ctx, returns.RequestInput{UnitID: f.units[0], RequestedOutcome: entity.OutcomeRestock, Note: " wrong colour "})
	require.NoError(t, err)
	assert.Equal(t, entity.ReturnPending, ret.Status)
	assert.Equal(t, "wrong colour", entity.StrVal(ret.Note))
	assert.Equal(t, entity.UnitReturned, f.unitStatus(t, f.units[0]))

	tests := []struct {
		name  string
		in    returns.RequestInput
		check func(error) bool
	}{
		{"already returned", returns.RequestInput{UnitID: f.units[0], RequestedOutcome: entity.OutcomeRestock}, apperror.IsInvalidRequest},
		{"available unit", returns.RequestInput{UnitID: f.units[3], RequestedOutcome: entity.OutcomeRestock}, apperror.IsInvalidRequest},
		{"unknown outcome", returns.RequestInput{UnitID: f.units[1], RequestedOutcome: "refund"}, apperror.IsInvalidRequest},
		{"missing unit", returns.RequestInput{UnitID: 999, RequestedOutcome: entity.OutcomeDefective}, apperror.IsNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Request(ctx, tt.in)
			assert.True(t, tt.check(err), "unexpected error %v", err)
		})
	}
	assert.Equal(t, entity.UnitSold, f.unitStatus(t, f.units[1]))
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	acme := entity.Supplier{Name: "Acme"}
	require.NoError(t, f.store.CreateSupplier(ctx, &acme))

	open := func(unitID id.ID, outcome entity.ReturnOutcome) entity.InventoryReturn {
		ret, err := f.svc.Request(ctx, returns.RequestInput{UnitID: unitID, RequestedOutcome: outcome, Note: "opened"})
		require.NoError(t, err)
		return ret
	}

	t.Run("restock puts the unit back on sale", func(t *testing.T) {
		ret := open(f.units[0], entity.OutcomeRestock)
		require.Equal(t, "1", f.stock(t))

		note := "resealed"
		got, err := f.svc.Resolve(ctx, ret.ID, returns.ResolveInput{Action: returns.ActionRestock, Note: &note})
		require.NoError(t, err)
		assert.Equal(t, entity.ReturnRestocked, got.Status)
		assert.Equal(t, "resealed", entity.StrVal(got.Note))
		assert.NotNil(t, got.ResolvedAt)
		assert.Equal(t, entity.UnitAvailable, f.unitStatus(t, f.units[0]))
		assert.Equal(t, "2", f.stock(t))

		_, err = f.svc.Resolve(ctx, ret.ID, returns.ResolveInput{Action: returns.ActionTrash})
		assert.True(t, apperror.IsInvalidRequest(err), "resolved returns are final")
	})

	t.Run("trash writes the unit off", func(t *testing.T) {
		ret := open(f.units[1], entity.OutcomeDefective)
		got, err := f.svc.Resolve(ctx, ret.ID, returns.ResolveInput{Action: returns.ActionTrash})
		require.NoError(t, err)
		assert.Equal(t, entity.ReturnTrashed, got.Status)
		assert.Equal(t, "opened", entity.StrVal(got.Note), "note kept when none is given")
		assert.Equal(t, entity.UnitDefective, f.unitStatus(t, f.units[1]))
		assert.Equal(t, "2", f.stock(t))
	})

	t.Run("return to supplier", func(t *testing.T) {
		ret := open(f.units[2], entity.OutcomeDefective)

		_, err := f.svc.Resolve(ctx, ret.ID, returns.ResolveInput{Action: returns.ActionReturnToSupplier, SupplierID: id.Ptr(999)})
		assert.True(t, apperror.IsInvalidRequest(err))
		_, err = f.svc.Resolve(ctx, ret.ID, returns.ResolveInput{Action: "refund"})
		assert.True(t, apperror.IsInvalidRequest(err))
		assert.Equal(t, entity.UnitReturned, f.unitStatus(t, f.units[2]))

		got, err := f.svc.Resolve(ctx, ret.ID, returns.ResolveInput{Action: returns.ActionReturnToSupplier, SupplierID: id.Ptr(acme.ID), SupplierNote: "RMA 12"})
		require.NoError(t, err)
		assert.Equal(t, entity.ReturnReturnedToSupplier, got.Status)
		assert.Equal(t, acme.ID, *got.SupplierID)
		assert.Equal(t, "RMA 12", entity.StrVal(got.SupplierNote))
		assert.Equal(t, entity.UnitDefective, f.unitStatus(t, f.units[2]))
	})

	_, err := f.svc.Resolve(ctx, 999, returns.ResolveInput{Action: returns.ActionTrash})
	assert.True(t, apperror.IsNotFound(err))
}

func TestList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.svc.Request(ctx, returns.RequestInput{UnitID: f.units[0], RequestedOutcome: entity.OutcomeRestock})
	require.NoError(t, err)
	_, err = f.svc.Resolve(ctx, first.ID, returns.ResolveInput{Action: returns.ActionTrash})
	require.NoError(t, err)
	second, err := f.svc.Request(ctx, returns.RequestInput{UnitID: f.units[1], RequestedOutcome: entity.OutcomeDefective})
	require.NoError(t, err)
	third, err := f.svc.Request(ctx, returns.RequestInput{UnitID: f.units[2], RequestedOutcome: entity.OutcomeDefective})
	require.NoError(t, err)

	rows, err := f.svc.List(ctx, returns.ListFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, third.ID, rows[0].ID, "pending first, newest first")
	assert.Equal(t, second.ID, rows[1].ID)
	assert.Equal(t, first.ID, rows[2].ID)

	row := rows[0]
	assert.Equal(t, "Kettle", row.ItemName)
	assert.Equal(t, "K-C", entity.StrVal(row.UnitBarcode))
	assert.Equal(t, entity.UnitReturned, row.UnitStatus)
	require.NotNil(t, row.SaleID)
	assert.Equal(t, f.sale.ID, *row.SaleID)
	assert.Equal(t, "25.00", row.UnitPrice.StringFixed(2))

	pending, err := f.svc.List(ctx, returns.ListFilter{Status: entity.ReturnPending, Limit: 1})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, third.ID, pending[0].ID)
}

func TestParseAction(t *testing.T) {
	for raw, want := range map[string]returns.Action{
		"restock":            returns.ActionRestock,
		"trash":              returns.ActionTrash,
		"returnToSupplier":   returns.ActionReturnToSupplier,
		"return_to_supplier": returns.ActionReturnToSupplier,
	} {
		got, ok := returns.ParseAction(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got)
	}
	_, ok := returns.ParseAction("refund")
	assert.False(t, ok)
}
