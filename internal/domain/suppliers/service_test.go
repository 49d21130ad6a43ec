package suppliers_test

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
	"retailcore/internal/domain/restocks"
	"retailcore/internal/domain/suppliers"
	"retailcore/internal/infrastructure/storage/memory"
)

var owner = entity.Actor{ID: 1}

type fixture struct {
	store    *memory.Store
	restocks *restocks.Service
	svc      *suppliers.Service
	item     entity.Item
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	at := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time {
		at = at.Add(time.Second)
		return at
	})
	_, err := store.SeedCashboxes(context.Background())
	require.NoError(t, err)

	cash := cashbox.NewLedger(store, store, nil)
	rs := restocks.NewService(store, store, store, cash, store, store)
	item := entity.Item{Name: "Fuse", Unit: entity.StockUnitPiece, Stock: types.Zero()}
	require.NoError(t, store.CreateItem(context.Background(), &item))
	return &fixture{
		store:    store,
		restocks: rs,
		svc:      suppliers.NewService(store, rs, cash, store),
		item:     item,
	}
}

// restock buys n fuses at 1.00 on the given day.
func (f *fixture) restock(t *testing.T, supplier string, n int, date time.Time) *restocks.RestockView {
	t.Helper()
	view, err := f.restocks.Create(context.Background(), owner, restocks.RestockInput{
		Supplier: restocks.SupplierInput{Name: supplier},
		Lines:    []restocks.LineInput{{ItemID: f.item.ID, Quantity: n, UnitCost: types.MustMoney("1")}},
		Date:     &date,
	})
	require.NoError(t, err)
	return view
}

func TestPayOldestFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// Created out of order: the business date decides.
	second := f.restock(t, "Acme", 30, time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC))
	first := f.restock(t, "Acme", 50, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))
	other := f.restock(t, "Volt", 10, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	slices, err := f.svc.Pay(ctx, owner, *first.SupplierID, suppliers.DebtPayment{
		PaymentInput: cashbox.PaymentInput{Amount: types.MustMoney("60"), Cashbox: cashbox.ByCode("A"), Note: "January"},
	})
	require.NoError(t, err)
	require.Len(t, slices, 2)

	assert.Equal(t, first.ID, slices[0].RestockID)
	assert.Equal(t, "50.00", slices[0].Amount.StringFixed(2))
	assert.Equal(t, entity.StatusPaid, slices[0].Status)
	assert.Equal(t, second.ID, slices[1].RestockID)
	assert.Equal(t, "10.00", slices[1].Amount.StringFixed(2))
	assert.Equal(t, entity.StatusPartial, slices[1].Status)
	assert.NotEqual(t, slices[0].PaymentID, slices[1].PaymentID)

	view, err := f.restocks.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "20.00", view.Outstanding.StringFixed(2))

	untouched, err := f.restocks.Get(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusUnpaid, untouched.Status)
}

func TestPayWithHints(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.restock(t, "Acme", 50, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))
	b := f.restock(t, "Acme", 30, time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC))

	slices, err := f.svc.Pay(ctx, owner, *a.SupplierID, suppliers.DebtPayment{
		PaymentInput: cashbox.PaymentInput{Amount: types.MustMoney("40"), Cashbox: cashbox.ByCode("B")},
		Hints:        []suppliers.Hint{{RestockID: a.ID, Amount: types.MustMoney("15")}},
	})
	require.NoError(t, err)
	require.Len(t, slices, 2)
	assert.Equal(t, "15.00", slices[0].Amount.StringFixed(2))
	assert.Equal(t, b.ID, slices[1].RestockID)
	assert.Equal(t, "25.00", slices[1].Amount.StringFixed(2))
}

func TestPayRejectsUnallocatedMoney(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := f.restock(t, "Acme", 5, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))

	_, err := f.svc.Pay(ctx, owner, *r.SupplierID, suppliers.DebtPayment{
		PaymentInput: cashbox.PaymentInput{Amount: types.MustMoney("6"), Cashbox: cashbox.ByCode("A")},
	})
	assert.True(t, apperror.IsInvalidRequest(err))

	view, err := f.restocks.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Payments, "the partial slice is rolled back")
	assert.Equal(t, entity.StatusUnpaid, view.Status)

	tests := []struct {
		name       string
		supplierID id.ID
		in         cashbox.PaymentInput
		check      func(error) bool
	}{
		{"zero amount", *r.SupplierID, cashbox.PaymentInput{Cashbox: cashbox.ByCode("A")}, apperror.IsInvalidRequest},
		{"no cashbox", *r.SupplierID, cashbox.PaymentInput{Amount: types.MustMoney("1")}, apperror.IsInvalidRequest},
		{"unknown supplier", 999, cashbox.PaymentInput{Amount: types.MustMoney("1"), Cashbox: cashbox.ByCode("A")}, apperror.IsNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Pay(ctx, owner, tt.supplierID, suppliers.DebtPayment{PaymentInput: tt.in})
			assert.True(t, tt.check(err), "unexpected error %v", err)
		})
	}
}
