package sales_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
	"retailcore/internal/domain/cashbox"
	"retailcore/internal/domain/pricing"
	"retailcore/internal/domain/receipt"
	"retailcore/internal/domain/sales"
	"retailcore/internal/infrastructure/storage/memory"
)

var (
	clerk = entity.Actor{ID: 7}
	day   = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
)

type fixture struct {
	store *memory.Store
	svc   *sales.Service
	boxes map[string]entity.Cashbox
}

type digitsOnly struct{}

func (digitsOnly) Normalize(raw string) string {
	out := make([]rune, 0, len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			out = append(out, r)
		}
	}
	return string(out)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	at := day
	store.SetClock(func() time.Time {
		at = at.Add(time.Second)
		return at
	})
	boxes, err := store.SeedCashboxes(context.Background())
	require.NoError(t, err)

	ledger := cashbox.NewLedger(store, store, nil)
	svc := sales.NewService(store, store, store, ledger, store, store,
		sales.WithAuditor(store),
		sales.WithPhoneNormalizer(digitsOnly{}),
		sales.WithClock(func() time.Time { return day }),
	)
	return &fixture{store: store, svc: svc, boxes: boxes}
}

func (f *fixture) item(t *testing.T, item entity.Item) entity.Item {
	t.Helper()
	if item.Unit == "" {
		item.Unit = entity.StockUnitPiece
	}
	require.NoError(t, f.store.CreateItem(context.Background(), &item))
	return item
}

func (f *fixture) roll(t *testing.T, item entity.Item, length string) entity.Roll {
	t.Helper()
	roll := entity.Roll{ItemID: item.ID, LengthM: types.MustLength(length), RemainingM: types.MustLength(length), CostPerMeter: types.Ptr(types.MustMoney("0.80"))}
	require.NoError(t, f.store.CreateRoll(context.Background(), &roll))
	return roll
}

func (f *fixture) units(t *testing.T, item entity.Item, n int) []id.ID {
	t.Helper()
	units := make([]*entity.InventoryUnit, n)
	for i := range units {
		units[i] = &entity.InventoryUnit{ItemID: item.ID, Status: entity.UnitAvailable, CostEach: types.Ptr(types.MustMoney("5"))}
	}
	require.NoError(t, f.store.CreateUnits(context.Background(), units))
	ids := make([]id.ID, n)
	for i, u := range units {
		ids[i] = u.ID
	}
	return ids
}

func (f *fixture) stock(t *testing.T, itemID id.ID) string {
	t.Helper()
	item, err := f.store.GetItem(context.Background(), itemID)
	require.NoError(t, err)
	return item.Stock.StringFixed(3)
}

func money(s string) *types.Money {
	m := types.MustMoney(s)
	return &m
}

func TestCreateMeterSale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cable := f.item(t, entity.Item{Name: "Cable-5", Unit: entity.StockUnitMeter, Stock: types.MustLength("100"), PriceRetail: money("2.50")})
	roll := f.roll(t, cable, "100")

	view, err := f.svc.Create(ctx, clerk, sales.SaleInput{
		Lines: []sales.LineInput{{ItemID: cable.ID, Mode: entity.ModeMeter, LengthM: types.MustLength("30")}},
	})
	require.NoError(t, err)

	assert.Equal(t, "S-2026-000001", view.Number)
	assert.Equal(t, "75.00", view.Total.StringFixed(2))
	assert.Equal(t, entity.StatusUnpaid, view.Status)
	assert.Equal(t, "unpaid", view.StatusLabel)
	assert.Equal(t, "simple", view.ReceiptType)
	assert.Equal(t, clerk.ID, view.UserID)

	require.Len(t, view.Lines, 1)
	line := view.Lines[0]
	assert.Equal(t, 1, line.Quantity)
	assert.Equal(t, roll.ID, *line.RollID)
	assert.Equal(t, "30.000", line.LengthM.StringFixed(3))
	assert.Equal(t, "0.80", line.CostEach.StringFixed(2))

	got, err := f.store.GetRoll(ctx, roll.ID)
	require.NoError(t, err)
	assert.Equal(t, "70.000", got.RemainingM.StringFixed(3))
	assert.Equal(t, "70.000", f.stock(t, cable.ID))
}

func TestCreateEachSaleWithUnits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	phone := f.item(t, entity.Item{Name: "Phone", Stock: types.MustLength("3"), TrackUnits: true, PriceRetail: money("120"), PriceWholesale: money("100")})
	ids := f.units(t, phone, 3)

	view, err := f.svc.Create(ctx, clerk, sales.SaleInput{
		Customer: sales.CustomerInput{Name: " Jane Doe ", Phone: "+1 (555) 010-2030"},
		Lines: []sales.LineInput{
			{ItemID: phone.ID, Quantity: 1, Tier: pricing.TierWholesale},
			{ItemID: phone.ID, UnitIDs: []id.ID{ids[2]}, UnitPrice: money("99.99")},
		},
		ReceiptType: "invoice",
		Note:        "  counter sale ",
	})
	require.NoError(t, err)

	assert.Equal(t, "199.99", view.Total.StringFixed(2))
	assert.Equal(t, "invoice", view.ReceiptType)
	assert.Equal(t, "counter sale", entity.StrVal(view.Note))
	require.NotNil(t, view.Customer)
	assert.Equal(t, "Jane Doe", view.Customer.Name)
	assert.Equal(t, "15550102030", entity.StrVal(view.Customer.ContactInfo))

	require.Len(t, view.Lines, 2)
	assert.Equal(t, []id.ID{ids[0]}, view.Lines[0].UnitIDs)
	assert.Equal(t, []id.ID{ids[2]}, view.Lines[1].UnitIDs)
	require.Len(t, view.Lines[1].Units, 1)
	assert.Equal(t, entity.UnitSold, view.Lines[1].Units[0].Status)
	assert.Equal(t, "1.000", f.stock(t, phone.ID))

	again, err := f.svc.Create(ctx, clerk, sales.SaleInput{
		Customer: sales.CustomerInput{Name: "jane doe", Phone: "555 999"},
		Lines:    []sales.LineInput{{ItemID: phone.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, view.Customer.ID, again.Customer.ID)
	assert.Equal(t, "555999", entity.StrVal(again.Customer.ContactInfo))
	assert.Equal(t, "S-2026-000002", again.Number)
	assert.Equal(t, []id.ID{ids[1]}, again.Lines[0].UnitIDs)
}

func TestPartialPaymentAndOverride(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	kit := f.item(t, entity.Item{Name: "Tool kit", Stock: types.MustLength("1"), PriceRetail: money("100")})

	view, err := f.svc.Create(ctx, clerk, sales.SaleInput{
		Lines:   []sales.LineInput{{ItemID: kit.ID, Quantity: 1}},
		Payment: cashbox.PaymentInput{Amount: types.MustMoney("40"), Cashbox: cashbox.ByCode("a"), Note: "deposit"},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPartial, view.Status)
	assert.Equal(t, "40.00", view.Paid.StringFixed(2))
	assert.Equal(t, "60.00", view.Outstanding.StringFixed(2))
	require.Len(t, view.Payments, 1)
	assert.Equal(t, f.boxes["A"].ID, *view.Payments[0].CashboxID)

	view, err = f.svc.SetOverride(ctx, view.ID, &receipt.OverrideInput{Status: entity.StatusPaid, Note: "settled in kind"})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPaid, view.Status)
	require.NotNil(t, view.ManualStatus)
	assert.Equal(t, "settled in kind", view.ManualStatus.Note)

	_, err = f.svc.SetOverride(ctx, view.ID, &receipt.OverrideInput{Status: "DONE"})
	assert.True(t, apperror.IsInvalidRequest(err))

	view, err = f.svc.SetOverride(ctx, view.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPartial, view.Status)
	assert.Nil(t, view.ManualStatus)

	view, err = f.svc.AddPayment(ctx, clerk, view.ID, cashbox.PaymentInput{Amount: types.MustMoney("60"), Cashbox: cashbox.ByCode("B")})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPaid, view.Status)
	assert.True(t, view.Outstanding.IsZero())

	_, err = f.svc.AddPayment(ctx, clerk, view.ID, cashbox.PaymentInput{Amount: types.MustMoney("5")})
	assert.True(t, apperror.IsInvalidRequest(err))
	_, err = f.svc.AddPayment(ctx, clerk, 404, cashbox.PaymentInput{Amount: types.MustMoney("5"), Cashbox: cashbox.ByCode("A")})
	assert.True(t, apperror.IsNotFound(err))

	stored, err := f.store.GetSale(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPaid, stored.Status)
}

func TestEditRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lamp := f.item(t, entity.Item{Name: "Lamp", Stock: types.MustLength("2"), TrackUnits: true, PriceRetail: money("10")})
	ids := f.units(t, lamp, 2)
	cable := f.item(t, entity.Item{Name: "Cable", Unit: entity.StockUnitMeter, Stock: types.MustLength("20"), PriceRetail: money("1")})
	roll := f.roll(t, cable, "20")

	created, err := f.svc.Create(ctx, clerk, sales.SaleInput{
		Lines: []sales.LineInput{
			{ItemID: lamp.ID, Quantity: 2},
			{ItemID: cable.ID, Mode: entity.ModeMeter, LengthM: types.MustLength("15")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "0.000", f.stock(t, lamp.ID))

	_, err = f.svc.Edit(ctx, clerk, created.ID, sales.EditInput{SaleInput: sales.SaleInput{Lines: []sales.LineInput{{ItemID: lamp.ID, Quantity: 1}}}})
	assert.True(t, apperror.IsInvalidRequest(err), "edit note is required")

	// The edited sale can reuse its own units and the full roll again.
	edited, err := f.svc.Edit(ctx, clerk, created.ID, sales.EditInput{
		SaleInput: sales.SaleInput{
			Lines: []sales.LineInput{
				{ItemID: lamp.ID, UnitIDs: []id.ID{ids[1]}},
				{ItemID: cable.ID, Mode: entity.ModeMeter, LengthM: types.MustLength("20"), RollID: id.Ptr(roll.ID)},
			},
		},
		EditNote: "customer kept one lamp",
	})
	require.NoError(t, err)

	assert.Equal(t, created.Number, edited.Number)
	assert.Equal(t, "30.00", edited.Total.StringFixed(2))
	assert.Equal(t, "customer kept one lamp", entity.StrVal(edited.LastEditNote))
	assert.Equal(t, clerk.ID, *edited.LastEditUser)
	require.Len(t, edited.Lines, 2)
	assert.Equal(t, []id.ID{ids[1]}, edited.Lines[0].UnitIDs)

	assert.Equal(t, "1.000", f.stock(t, lamp.ID))
	assert.Equal(t, "0.000", f.stock(t, cable.ID))
	freed, err := f.store.GetUnit(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, entity.UnitAvailable, freed.Status)

	trail := f.store.AuditTrail("sale", created.ID)
	require.Len(t, trail, 1)
	before, ok := trail[0].Snapshot.(*sales.SaleView)
	require.True(t, ok)
	assert.Len(t, before.Lines[0].UnitIDs, 2)
}

func TestCreateRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lamp := f.item(t, entity.Item{Name: "Lamp", Stock: types.MustLength("5"), PriceRetail: money("10")})

	tests := []struct {
		name  string
		input sales.SaleInput
		check func(error) bool
	}{
		{"no lines", sales.SaleInput{}, apperror.IsInvalidRequest},
		{"unknown item", sales.SaleInput{Lines: []sales.LineInput{{ItemID: lamp.ID, Quantity: 1}, {ItemID: 999, Quantity: 1}}}, apperror.IsInvalidRequest},
		{"over stock", sales.SaleInput{Lines: []sales.LineInput{{ItemID: lamp.ID, Quantity: 3}, {ItemID: lamp.ID, Quantity: 3}}}, apperror.IsInsufficientInventory},
		{"payment without cashbox", sales.SaleInput{
			Lines:   []sales.LineInput{{ItemID: lamp.ID, Quantity: 1}},
			Payment: cashbox.PaymentInput{Amount: types.MustMoney("10")},
		}, apperror.IsInvalidRequest},
		{"negative payment", sales.SaleInput{
			Lines:   []sales.LineInput{{ItemID: lamp.ID, Quantity: 1}},
			Payment: cashbox.PaymentInput{Amount: types.MustMoney("-1"), Cashbox: cashbox.ByCode("A")},
		}, apperror.IsInvalidRequest},
		{"price with fractions of a cent", sales.SaleInput{Lines: []sales.LineInput{{ItemID: lamp.ID, Quantity: 1, UnitPrice: money("1.005")}}}, apperror.IsInvalidRequest},
		{"unknown customer", sales.SaleInput{
			Customer: sales.CustomerInput{ID: id.Ptr(999)},
			Lines:    []sales.LineInput{{ItemID: lamp.ID, Quantity: 1}},
		}, apperror.IsInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, clerk, tt.input)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error %v", err)
			assert.Equal(t, "5.000", f.stock(t, lamp.ID))
		})
	}

	_, err := f.svc.Create(ctx, entity.Actor{}, sales.SaleInput{Lines: []sales.LineInput{{ItemID: lamp.ID, Quantity: 1}}})
	assert.True(t, apperror.IsInvalidRequest(err), "a sale needs a user")

	view, err := f.svc.Create(ctx, clerk, sales.SaleInput{Lines: []sales.LineInput{{ItemID: lamp.ID, Quantity: 1}}})
	require.NoError(t, err)
	assert.Equal(t, "S-2026-000001", view.Number, "failed attempts must not consume numbers")
}

func TestPrivilegedActorRecordsOtherUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lamp := f.item(t, entity.Item{Name: "Lamp", Stock: types.MustLength("2")})

	view, err := f.svc.Create(ctx, entity.Actor{ID: 1, Privileged: true}, sales.SaleInput{UserID: 42, Lines: []sales.LineInput{{ItemID: lamp.ID, Quantity: 1}}})
	require.NoError(t, err)
	assert.Equal(t, id.ID(42), view.UserID)

	view, err = f.svc.Create(ctx, clerk, sales.SaleInput{UserID: 42, Lines: []sales.LineInput{{ItemID: lamp.ID, Quantity: 1}}})
	require.NoError(t, err)
	assert.Equal(t, clerk.ID, view.UserID)
}

func TestConcurrentSalesOfLastUnit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lamp := f.item(t, entity.Item{Name: "Lamp", Stock: types.MustLength("1"), TrackUnits: true, PriceRetail: money("10")})
	f.units(t, lamp, 1)

	const workers = 8
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		ok     int
		denied int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Create(ctx, clerk, sales.SaleInput{Lines: []sales.LineInput{{ItemID: lamp.ID, Quantity: 1}}})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case apperror.IsInsufficientInventory(err):
				denied++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, denied)
	assert.Equal(t, "0.000", f.stock(t, lamp.ID))
}
