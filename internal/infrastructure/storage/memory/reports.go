package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
	"retailcore/internal/domain/reports"
	"retailcore/internal/domain/returns"
)

var (
	_ returns.Repository = (*Store)(nil)
	_ reports.Repository = (*Store)(nil)
)

// --- Returns ---

func (s *Store) CreateReturn(ctx context.Context, r *entity.InventoryReturn) error {
	defer s.lock(ctx)()
	if r.Status == entity.ReturnPending {
		for _, existing := range s.st.returns {
			if existing.UnitID == r.UnitID && existing.Status == entity.ReturnPending {
				return fmt.Errorf("unit %d already has a pending return", r.UnitID)
			}
		}
	}
	r.ID = s.nextID()
	r.CreatedAt = s.now()
	s.st.returns[r.ID] = *r
	return nil
}

func (s *Store) GetReturnForUpdate(ctx context.Context, returnID id.ID) (entity.InventoryReturn, error) {
	defer s.lock(ctx)()
	r, ok := s.st.returns[returnID]
	if !ok {
		return entity.InventoryReturn{}, apperror.NewNotFound("inventory return", returnID)
	}
	return r, nil
}

func (s *Store) HasPendingReturn(ctx context.Context, unitID id.ID) (bool, error) {
	defer s.lock(ctx)()
	for _, r := range s.st.returns {
		if r.UnitID == unitID && r.Status == entity.ReturnPending {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) UpdateReturn(ctx context.Context, r *entity.InventoryReturn) error {
	defer s.lock(ctx)()
	cur, ok := s.st.returns[r.ID]
	if !ok {
		return apperror.NewNotFound("inventory return", r.ID)
	}
	next := *r
	next.CreatedAt = cur.CreatedAt
	s.st.returns[r.ID] = next
	return nil
}

func (s *Store) ListReturns(ctx context.Context, f returns.ListFilter) ([]returns.Row, error) {
	defer s.lock(ctx)()
	list := sortedValues(s.st.returns,
		func(r entity.InventoryReturn) bool { return f.Status == "" || r.Status == f.Status },
		func(a, b entity.InventoryReturn) bool {
			if ap, bp := a.Status == entity.ReturnPending, b.Status == entity.ReturnPending; ap != bp {
				return ap
			}
			return olderFirst(b.CreatedAt, b.ID, a.CreatedAt, a.ID)
		},
	)
	if f.Limit > 0 && len(list) > f.Limit {
		list = list[:f.Limit]
	}

	rows := make([]returns.Row, 0, len(list))
	for _, r := range list {
		row := returns.Row{InventoryReturn: r}
		if u, ok := s.st.units[r.UnitID]; ok {
			row.UnitBarcode = u.Barcode
			row.UnitStatus = u.Status
			row.ItemID = u.ItemID
			row.ItemName = s.st.items[u.ItemID].Name
		}
		if r.SupplierID != nil {
			if sup, ok := s.st.suppliers[*r.SupplierID]; ok {
				row.SupplierName = &sup.Name
			}
		}
		if line, ok := s.latestSaleLineOf(r.UnitID); ok {
			row.SaleID = id.Ptr(line.SaleID)
			row.SaleLineID = id.Ptr(line.ID)
			row.UnitPrice = types.Ptr(line.PriceEach)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *Store) latestSaleLineOf(unitID id.ID) (entity.SaleLine, bool) {
	var (
		found entity.SaleLine
		ok    bool
	)
	for _, l := range s.st.saleLines {
		if slices.Contains(l.UnitIDs, unitID) && (!ok || l.ID > found.ID) {
			found, ok = l, true
		}
	}
	return found, ok
}

// --- Reports ---

func (s *Store) ListSaleDocuments(ctx context.Context, f reports.MovementFilter) ([]reports.DocumentRow, error) {
	defer s.lock(ctx)()
	var rows []reports.DocumentRow
	for _, sale := range s.st.sales {
		row := reports.DocumentRow{
			ID:          sale.ID,
			Number:      sale.Number,
			Date:        timePtr(sale.Date),
			Total:       sale.Total,
			Status:      sale.Status,
			Note:        sale.Note,
			ReceiptType: sale.ReceiptType,
			UserID:      id.Ptr(sale.UserID),
			PartyID:     sale.CustomerID,
		}
		if sale.CustomerID != nil {
			if c, ok := s.st.customers[*sale.CustomerID]; ok {
				row.PartyName = &c.Name
			}
		}
		row.Paid, row.Cashboxes = s.paymentSummary(entity.PaymentSale, sale.ID)
		if s.matchDocument(row, f) {
			rows = append(rows, row)
		}
	}
	return limitDocuments(rows, f.Limit), nil
}

func (s *Store) ListRestockDocuments(ctx context.Context, f reports.MovementFilter) ([]reports.DocumentRow, error) {
	defer s.lock(ctx)()
	var rows []reports.DocumentRow
	for _, r := range s.st.restocks {
		row := reports.DocumentRow{
			ID:      r.ID,
			Number:  r.Number,
			Date:    timePtr(r.EffectiveDate()),
			Total:   r.Total,
			Status:  r.Status,
			Note:    r.Note,
			UserID:  r.UserID,
			PartyID: r.SupplierID,
		}
		if r.SupplierID != nil {
			if sup, ok := s.st.suppliers[*r.SupplierID]; ok {
				row.PartyName = &sup.Name
			}
		}
		row.Paid, row.Cashboxes = s.paymentSummary(entity.PaymentRestock, r.ID)
		if s.matchDocument(row, f) {
			rows = append(rows, row)
		}
	}
	return limitDocuments(rows, f.Limit), nil
}

func (s *Store) paymentSummary(kind entity.PaymentKind, docID id.ID) (types.Money, []string) {
	paid := types.Zero()
	var codes []string
	for _, p := range s.st.payments {
		if !paymentOf(p, kind, docID) {
			continue
		}
		paid = paid.Add(p.Amount)
		if p.CashboxID != nil {
			if cb, ok := s.st.cashboxes[*p.CashboxID]; ok && !slices.Contains(codes, cb.Code) {
				codes = append(codes, cb.Code)
			}
		}
	}
	slices.Sort(codes)
	return paid, codes
}

func (s *Store) matchDocument(row reports.DocumentRow, f reports.MovementFilter) bool {
	switch {
	case f.PartyID != nil && (row.PartyID == nil || *row.PartyID != *f.PartyID):
		return false
	case f.Status != "" && row.Status != f.Status:
		return false
	case f.CashboxCode != "" && !slices.Contains(row.Cashboxes, f.CashboxCode):
		return false
	case f.FromDate != nil && (row.Date == nil || row.Date.Before(*f.FromDate)):
		return false
	case f.ToDate != nil && (row.Date == nil || row.Date.After(*f.ToDate)):
		return false
	}
	if f.Search != "" {
		nameHit := strings.Contains(strings.ToLower(entity.StrVal(row.PartyName)), strings.ToLower(f.Search))
		idHit := f.SearchID != nil && *f.SearchID == row.ID
		if !nameHit && !idHit {
			return false
		}
	}
	return true
}

func limitDocuments(rows []reports.DocumentRow, limit int) []reports.DocumentRow {
	slices.SortFunc(rows, func(a, b reports.DocumentRow) int {
		var at, bt time.Time
		if a.Date != nil {
			at = *a.Date
		}
		if b.Date != nil {
			bt = *b.Date
		}
		if c := bt.Compare(at); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

func (s *Store) SupplierDebts(ctx context.Context) ([]reports.DebtRow, error) {
	defer s.lock(ctx)()
	bySupplier := map[id.ID]*reports.DebtRow{}
	var order []id.ID
	for _, r := range sortedValues(s.st.restocks, nil, func(a, b entity.Restock) bool { return a.ID < b.ID }) {
		var key id.ID
		if r.SupplierID != nil {
			key = *r.SupplierID
		}
		row, ok := bySupplier[key]
		if !ok {
			row = &reports.DebtRow{SupplierID: r.SupplierID, Total: types.Zero(), Paid: types.Zero()}
			if sup, found := s.st.suppliers[key]; found {
				row.SupplierName = &sup.Name
			}
			bySupplier[key] = row
			order = append(order, key)
		}
		paid, _ := s.paymentSummary(entity.PaymentRestock, r.ID)
		row.RestockCount++
		row.Total = row.Total.Add(r.Total)
		row.Paid = row.Paid.Add(paid)
	}

	out := make([]reports.DebtRow, 0, len(order))
	for _, key := range order {
		out = append(out, *bySupplier[key])
	}
	return out, nil
}

func (s *Store) SupplierRestockBalances(ctx context.Context, supplierID id.ID) ([]reports.RestockBalanceRow, error) {
	defer s.lock(ctx)()
	list := sortedValues(s.st.restocks,
		func(r entity.Restock) bool { return r.SupplierID != nil && *r.SupplierID == supplierID },
		func(a, b entity.Restock) bool { return olderFirst(b.EffectiveDate(), b.ID, a.EffectiveDate(), a.ID) },
	)
	rows := make([]reports.RestockBalanceRow, 0, len(list))
	for _, r := range list {
		paid, _ := s.paymentSummary(entity.PaymentRestock, r.ID)
		rows = append(rows, reports.RestockBalanceRow{Restock: r, Paid: paid})
	}
	return rows, nil
}

func (s *Store) SupplierPayments(ctx context.Context, supplierID id.ID) ([]reports.SupplierPayment, error) {
	defer s.lock(ctx)()
	list := sortedValues(s.st.payments,
		func(p entity.Payment) bool {
			if p.Kind != entity.PaymentRestock || p.RestockID == nil {
				return false
			}
			r, ok := s.st.restocks[*p.RestockID]
			return ok && r.SupplierID != nil && *r.SupplierID == supplierID
		},
		func(a, b entity.Payment) bool { return olderFirst(b.CreatedAt, b.ID, a.CreatedAt, a.ID) },
	)
	out := make([]reports.SupplierPayment, 0, len(list))
	for _, p := range list {
		sp := reports.SupplierPayment{
			ID:        p.ID,
			RestockID: *p.RestockID,
			Amount:    p.Amount,
			Note:      p.Note,
			CreatedAt: p.CreatedAt,
		}
		if p.CashboxID != nil {
			if cb, ok := s.st.cashboxes[*p.CashboxID]; ok {
				sp.CashboxCode = &cb.Code
			}
		}
		out = append(out, sp)
	}
	return out, nil
}

func timePtr(t time.Time) *time.Time {
	return &t
}
