package reports_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
	"retailcore/internal/domain/cashbox"
	"retailcore/internal/domain/reports"
	"retailcore/internal/domain/restocks"
	"retailcore/internal/domain/sales"
	"retailcore/internal/infrastructure/storage/memory"
)

var actor = entity.Actor{ID: 2}

func date(day int) *time.Time {
	d := time.Date(2026, 3, day, 12, 0, 0, 0, time.UTC)
	return &d
}

type fixture struct {
	svc     *reports.Service
	sales   []*sales.SaleView
	restock []*restocks.RestockView
}

// newFixture records two restocks from Acme, one from Volt and two sales.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time {
		at = at.Add(time.Second)
		return at
	})
	_, err := store.SeedCashboxes(ctx)
	require.NoError(t, err)

	cash := cashbox.NewLedger(store, store, nil)
	rs := restocks.NewService(store, store, store, cash, store, store)
	ss := sales.NewService(store, store, store, cash, store, store)

	price := types.MustMoney("10")
	item := entity.Item{Name: "Bulb", Unit: entity.StockUnitPiece, Stock: types.Zero(), PriceRetail: &price}
	require.NoError(t, store.CreateItem(ctx, &item))

	f := &fixture{svc: reports.NewService(store)}
	buy := func(supplier string, qty int, paid string, box string, day int) {
		in := restocks.RestockInput{
			Supplier: restocks.SupplierInput{Name: supplier},
			Lines:    []restocks.LineInput{{ItemID: item.ID, Quantity: qty, UnitCost: types.MustMoney("2")}},
			Date:     date(day),
		}
		if paid != "" {
			in.Payment = cashbox.PaymentInput{Amount: types.MustMoney(paid), Cashbox: cashbox.ByCode(box)}
		}
		v, err := rs.Create(ctx, actor, in)
		require.NoError(t, err)
		f.restock = append(f.restock, v)
	}
	sell := func(customer string, qty int, paid string, box string, day int) {
		in := sales.SaleInput{
			Customer: sales.CustomerInput{Name: customer},
			Lines:    []sales.LineInput{{ItemID: item.ID, Quantity: qty}},
			Date:     date(day),
		}
		if paid != "" {
			in.Payment = cashbox.PaymentInput{Amount: types.MustMoney(paid), Cashbox: cashbox.ByCode(box)}
		}
		v, err := ss.Create(ctx, actor, in)
		require.NoError(t, err)
		f.sales = append(f.sales, v)
	}

	// Acme: 100 paid, 60 unpaid. Volt: 20 with 5 paid.
	buy("Acme", 50, "100", "A", 2)
	buy("Acme", 30, "", "", 4)
	buy("Volt", 10, "5", "B", 3)
	// Jane pays 20 of 20, the walk-in 10 of 30.
	sell("Jane", 2, "20", "A", 5)
	sell("", 3, "10", "C", 6)
	return f
}

func TestReceipts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	all, err := f.svc.Receipts(ctx, reports.ReceiptFilter{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "OUT-"+itoa(f.sales[1].ID), all[0].Ref)
	assert.Equal(t, "OUT-"+itoa(f.sales[0].ID), all[1].Ref)
	assert.Equal(t, "IN-"+itoa(f.restock[1].ID), all[2].Ref)
	assert.Equal(t, "IN-"+itoa(f.restock[2].ID), all[3].Ref)
	assert.Equal(t, "IN-"+itoa(f.restock[0].ID), all[4].Ref)

	walkIn := all[0]
	assert.Equal(t, reports.ModeOut, walkIn.Mode)
	assert.Equal(t, "simple", walkIn.Type)
	assert.Equal(t, "partial", walkIn.Status)
	assert.Equal(t, "20.00", walkIn.Outstanding.StringFixed(2))
	assert.Nil(t, walkIn.Party)
	require.NotNil(t, all[1].Party)
	assert.Equal(t, "Jane", all[1].Party.Name)
	assert.Equal(t, "restock", all[2].Type)

	in, err := f.svc.Receipts(ctx, reports.ReceiptFilter{Mode: reports.ModeIn, FromDate: date(3), Limit: 1})
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, f.restock[1].ID, in[0].RawID)

	_, err = f.svc.Receipts(ctx, reports.ReceiptFilter{FromDate: date(9), ToDate: date(1)})
	assert.True(t, apperror.IsInvalidRequest(err))
}

func TestMovements(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	sold, err := f.svc.SaleMovements(ctx, reports.MovementFilter{})
	require.NoError(t, err)
	require.Len(t, sold, 2)
	assert.Equal(t, []string{"C"}, sold[0].Cashboxes)
	assert.Equal(t, "10.00", sold[0].Paid.StringFixed(2))

	byBox, err := f.svc.SaleMovements(ctx, reports.MovementFilter{CashboxCode: " a "})
	require.NoError(t, err)
	require.Len(t, byBox, 1)
	assert.Equal(t, f.sales[0].ID, byBox[0].ID)

	byName, err := f.svc.SaleMovements(ctx, reports.MovementFilter{Search: "jan"})
	require.NoError(t, err)
	require.Len(t, byName, 1)

	byID, err := f.svc.SaleMovements(ctx, reports.MovementFilter{Search: itoa(f.sales[1].ID)})
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, f.sales[1].ID, byID[0].ID)

	unpaid, err := f.svc.RestockMovements(ctx, reports.MovementFilter{Status: entity.StatusUnpaid})
	require.NoError(t, err)
	require.Len(t, unpaid, 1)
	assert.Equal(t, f.restock[1].ID, unpaid[0].ID)
	assert.NotNil(t, unpaid[0].Cashboxes)
	assert.Empty(t, unpaid[0].Cashboxes)

	acme, err := f.svc.RestockMovements(ctx, reports.MovementFilter{PartyID: f.restock[0].SupplierID, ToDate: date(3)})
	require.NoError(t, err)
	require.Len(t, acme, 1)
	assert.Equal(t, f.restock[0].ID, acme[0].ID)
}

func TestDebtOverview(t *testing.T) {
	f := newFixture(t)

	overview, err := f.svc.DebtOverview(context.Background())
	require.NoError(t, err)
	require.Len(t, overview.Suppliers, 2)

	acme := overview.Suppliers[0]
	assert.Equal(t, "Acme", acme.SupplierName)
	assert.Equal(t, 2, acme.RestockCount)
	assert.Equal(t, "160.00", acme.Total.StringFixed(2))
	assert.Equal(t, "60.00", acme.Outstanding.StringFixed(2))
	assert.Equal(t, "Volt", overview.Suppliers[1].SupplierName)
	assert.Equal(t, "75.00", overview.TotalOutstanding.StringFixed(2))
}

func TestDebtDetail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	detail, err := f.svc.DebtDetail(ctx, *f.restock[0].SupplierID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", detail.Supplier.Name)
	require.Len(t, detail.Restocks, 2)
	assert.Equal(t, f.restock[1].ID, detail.Restocks[0].ID, "newest first")
	assert.Equal(t, entity.StatusUnpaid, detail.Restocks[0].Status)
	assert.Equal(t, entity.StatusPaid, detail.Restocks[1].Status)
	assert.Equal(t, "160.00", detail.Summary.Total.StringFixed(2))
	assert.Equal(t, "100.00", detail.Summary.Paid.StringFixed(2))
	assert.Equal(t, "60.00", detail.Summary.Outstanding.StringFixed(2))
	require.Len(t, detail.Payments, 1)
	assert.Equal(t, "A", entity.StrVal(detail.Payments[0].CashboxCode))

	unknown, err := f.svc.DebtDetail(ctx, 999)
	require.NoError(t, err)
	assert.Equal(t, "Supplier #999", unknown.Supplier.Name)
	assert.Empty(t, unknown.Restocks)
	assert.NotNil(t, unknown.Payments)
}

func itoa(v id.ID) string {
	return strconv.FormatInt(v, 10)
}
