package restocks_test

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
	"retailcore/internal/domain/receipt"
	"retailcore/internal/domain/restocks"
	"retailcore/internal/infrastructure/storage/memory"
)

var buyer = entity.Actor{ID: 3}

func newService(t *testing.T) (*memory.Store, *restocks.Service) {
	t.Helper()
	store := memory.New()
	at := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time {
		at = at.Add(time.Second)
		return at
	})
	_, err := store.SeedCashboxes(context.Background())
	require.NoError(t, err)

	svc := restocks.NewService(store, store, store, cashbox.NewLedger(store, store, nil), store, store)
	svc.SetClock(func() time.Time { return at })
	return store, svc
}

func unitsOf(t *testing.T, store *memory.Store, itemID id.ID) []entity.InventoryUnit {
	t.Helper()
	var out []entity.InventoryUnit
	err := store.RunInTransaction(context.Background(), func(ctx context.Context) error {
		units, err := store.ClaimOldestUnits(ctx, itemID, 100, nil)
		out = units
		return err
	})
	require.NoError(t, err)
	return out
}

func TestCreateRestock(t *testing.T) {
	ctx := context.Background()
	store, svc := newService(t)

	existing := entity.Item{Name: "Socket", Unit: entity.StockUnitPiece, Stock: types.MustLength("2")}
	require.NoError(t, store.CreateItem(ctx, &existing))

	view, err := svc.Create(ctx, buyer, restocks.RestockInput{
		Supplier: restocks.SupplierInput{Name: " Acme "},
		Lines: []restocks.LineInput{
			{NewItem: &restocks.NewItemInput{Name: "Drill", PriceRetail: types.Ptr(types.MustMoney("80"))}, Quantity: 2, Serials: []string{"SN-1", " SN-2 "}, UnitCost: types.MustMoney("50")},
			{NewItem: &restocks.NewItemInput{Name: "Saw"}, Quantity: 3, AutoSerial: true, UnitCost: types.MustMoney("10.10")},
			{NewItem: &restocks.NewItemInput{Name: "Cable", StockUnit: entity.StockUnitMeter}, NewRolls: []types.Length{types.MustLength("100"), types.MustLength("50.5")}, UnitCost: types.MustMoney("0.33")},
			{ItemID: existing.ID, Quantity: 4, UnitCost: types.MustMoney("1.25")},
		},
		Tax:     types.MustMoney("5.00"),
		Payment: cashbox.PaymentInput{Amount: types.MustMoney("100"), Cashbox: cashbox.ByCode("A")},
		Note:    "weekly order",
	})
	require.NoError(t, err)

	// 100 + 30.30 + 33.00 + 16.67 + 5.00, plus 5.00 tax
	assert.Equal(t, "184.97", view.Subtotal.StringFixed(2))
	assert.Equal(t, "189.97", view.Total.StringFixed(2))
	assert.Equal(t, "R-2026-000001", view.Number)
	assert.Equal(t, entity.StatusPartial, view.Status)
	assert.Equal(t, "89.97", view.Outstanding.StringFixed(2))
	require.NotNil(t, view.Supplier)
	assert.Equal(t, "Acme", view.Supplier.Name)
	assert.Equal(t, buyer.ID, *view.UserID)
	require.Len(t, view.Lines, 5)

	drill, saw, cable := view.Lines[0].ItemID, view.Lines[1].ItemID, view.Lines[2].ItemID

	units := unitsOf(t, store, drill)
	require.Len(t, units, 2)
	assert.Equal(t, "SN-1", *units[0].Barcode)
	assert.Equal(t, "SN-2", *units[1].Barcode)
	assert.False(t, units[0].IsPlaceholder)
	assert.Equal(t, "50.00", units[0].CostEach.StringFixed(2))

	sawUnits := unitsOf(t, store, saw)
	require.Len(t, sawUnits, 3)
	assert.True(t, sawUnits[0].IsPlaceholder)
	assert.NotEqual(t, *sawUnits[0].Barcode, *sawUnits[1].Barcode)

	rolls, err := store.ListRolls(ctx, cable)
	require.NoError(t, err)
	require.Len(t, rolls, 2)
	assert.Equal(t, *view.Lines[2].RollID, rolls[0].ID)
	cableItem, err := store.GetItem(ctx, cable)
	require.NoError(t, err)
	assert.Equal(t, "150.500", cableItem.Stock.StringFixed(3))
	assert.False(t, cableItem.TrackUnits)

	socket, err := store.GetItem(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "6.000", socket.Stock.StringFixed(3))
	assert.Empty(t, unitsOf(t, store, existing.ID), "untracked items get no units")

	again, err := svc.Create(ctx, buyer, restocks.RestockInput{
		Supplier: restocks.SupplierInput{Name: "ACME"},
		Lines:    []restocks.LineInput{{ItemID: existing.ID, Quantity: 1, UnitCost: types.MustMoney("1")}},
	})
	require.NoError(t, err)
	assert.Equal(t, *view.SupplierID, *again.SupplierID)
	assert.Equal(t, entity.StatusUnpaid, again.Status)
}

func TestCreateRestockValidation(t *testing.T) {
	ctx := context.Background()
	store, svc := newService(t)

	tracked := entity.Item{Name: "Router", Unit: entity.StockUnitPiece, TrackUnits: true, Stock: types.Zero()}
	require.NoError(t, store.CreateItem(ctx, &tracked))
	require.NoError(t, store.CreateUnits(ctx, []*entity.InventoryUnit{{ItemID: tracked.ID, Barcode: entity.StrPtr("TAKEN"), Status: entity.UnitAvailable}}))

	line := func(l restocks.LineInput) restocks.RestockInput {
		return restocks.RestockInput{Supplier: restocks.SupplierInput{Name: "Acme"}, Lines: []restocks.LineInput{l}}
	}

	tests := []struct {
		name  string
		input restocks.RestockInput
	}{
		{"no lines", restocks.RestockInput{Supplier: restocks.SupplierInput{Name: "Acme"}}},
		{"no supplier", restocks.RestockInput{Lines: []restocks.LineInput{{ItemID: tracked.ID, Quantity: 1, AutoSerial: true}}}},
		{"unknown supplier id", restocks.RestockInput{Supplier: restocks.SupplierInput{ID: id.Ptr(999)}, Lines: []restocks.LineInput{{ItemID: tracked.ID, Quantity: 1, AutoSerial: true}}}},
		{"item and new item", line(restocks.LineInput{ItemID: tracked.ID, NewItem: &restocks.NewItemInput{Name: "X"}, Quantity: 1})},
		{"unknown item", line(restocks.LineInput{ItemID: 999, Quantity: 1})},
		{"zero quantity", line(restocks.LineInput{ItemID: tracked.ID, AutoSerial: true})},
		{"serial count mismatch", line(restocks.LineInput{ItemID: tracked.ID, Quantity: 2, Serials: []string{"A"}})},
		{"serials with auto", line(restocks.LineInput{ItemID: tracked.ID, Quantity: 1, Serials: []string{"A"}, AutoSerial: true})},
		{"serial already in stock", line(restocks.LineInput{ItemID: tracked.ID, Quantity: 1, Serials: []string{"TAKEN"}})},
		{"duplicate serial", line(restocks.LineInput{ItemID: tracked.ID, Quantity: 2, Serials: []string{"A", "A"}})},
		{"meter without rolls", line(restocks.LineInput{NewItem: &restocks.NewItemInput{Name: "Wire", StockUnit: entity.StockUnitMeter}})},
		{"each on meter item", line(restocks.LineInput{NewItem: &restocks.NewItemInput{Name: "Wire", StockUnit: entity.StockUnitMeter}, Mode: entity.ModeEach, Quantity: 1})},
		{"unknown stock unit", line(restocks.LineInput{NewItem: &restocks.NewItemInput{Name: "Wire", StockUnit: "kg"}, Quantity: 1})},
		{"negative cost", line(restocks.LineInput{ItemID: tracked.ID, Quantity: 1, AutoSerial: true, UnitCost: types.MustMoney("-1")})},
		{"negative tax", restocks.RestockInput{Supplier: restocks.SupplierInput{Name: "Acme"}, Tax: types.MustMoney("-1"), Lines: []restocks.LineInput{{ItemID: tracked.ID, Quantity: 1, AutoSerial: true}}}},
		{"payment without cashbox", restocks.RestockInput{Supplier: restocks.SupplierInput{Name: "Acme"}, Payment: cashbox.PaymentInput{Amount: types.MustMoney("1")}, Lines: []restocks.LineInput{{ItemID: tracked.ID, Quantity: 1, AutoSerial: true, UnitCost: types.MustMoney("1")}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, buyer, tt.input)
			assert.True(t, apperror.IsInvalidRequest(err), "unexpected error %v", err)
		})
	}

	item, err := store.GetItem(ctx, tracked.ID)
	require.NoError(t, err)
	assert.True(t, item.Stock.IsZero())
	_, found, err := store.FindSupplierByName(ctx, "Acme")
	require.NoError(t, err)
	assert.False(t, found, "rejected restocks leave no supplier behind")
}

func TestRestockPaymentsAndOverride(t *testing.T) {
	ctx := context.Background()
	store, svc := newService(t)
	item := entity.Item{Name: "Bulb", Unit: entity.StockUnitPiece, Stock: types.Zero()}
	require.NoError(t, store.CreateItem(ctx, &item))

	view, err := svc.Create(ctx, buyer, restocks.RestockInput{
		Supplier: restocks.SupplierInput{Name: "Lumen"},
		Lines:    []restocks.LineInput{{ItemID: item.ID, Quantity: 10, UnitCost: types.MustMoney("2")}},
		Override: &receipt.OverrideInput{Status: entity.StatusPaid, Note: "prepaid"},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPaid, view.Status)
	require.NotNil(t, view.ManualStatus)

	view, err = svc.SetOverride(ctx, view.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusUnpaid, view.Status)

	view, err = svc.AddPayment(ctx, buyer, view.ID, cashbox.PaymentInput{Amount: types.MustMoney("20"), Cashbox: cashbox.ByCode("C")})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPaid, view.Status)
	assert.Equal(t, "paid", view.StatusLabel)

	_, err = svc.AddPayment(ctx, buyer, view.ID, cashbox.PaymentInput{Amount: types.Zero(), Cashbox: cashbox.ByCode("C")})
	assert.True(t, apperror.IsInvalidRequest(err))
	_, err = svc.Get(ctx, 404)
	assert.True(t, apperror.IsNotFound(err))
}
