package reports

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
	"retailcore/internal/domain/receipt"
)

// Service provides report generation operations.
type Service struct {
	repo Repository
}

// NewService creates a new reports service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// Receipts merges sales (OUT-<id>) and restocks (IN-<id>) into one history,
// newest first.
func (s *Service) Receipts(ctx context.Context, filter ReceiptFilter) ([]Receipt, error) {
	filter.Limit = clampLimit(filter.Limit, 200, 1000)
	if filter.FromDate != nil && filter.ToDate != nil && filter.FromDate.After(*filter.ToDate) {
		return nil, apperror.NewInvalidRequest("fromDate must be before toDate")
	}
	docFilter := MovementFilter{FromDate: filter.FromDate, ToDate: filter.ToDate, Limit: filter.Limit}

	var out []Receipt
	if filter.Mode == "" || filter.Mode == ModeOut {
		rows, err := s.repo.ListSaleDocuments(ctx, docFilter)
		if err != nil {
			return nil, fmt.Errorf("list sales: %w", err)
		}
		for _, r := range rows {
			rec := toReceipt(r, ModeOut)
			if rec.Type == "" {
				rec.Type = "simple"
			}
			out = append(out, rec)
		}
	}
	if filter.Mode == "" || filter.Mode == ModeIn {
		rows, err := s.repo.ListRestockDocuments(ctx, docFilter)
		if err != nil {
			return nil, fmt.Errorf("list restocks: %w", err)
		}
		for _, r := range rows {
			rec := toReceipt(r, ModeIn)
			rec.Type = "restock"
			out = append(out, rec)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].Date, out[j].Date
		switch {
		case ti == nil && tj == nil:
		case ti == nil:
			return false
		case tj == nil:
			return true
		case !ti.Equal(*tj):
			return ti.After(*tj)
		}
		return out[i].RawID > out[j].RawID
	})
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func toReceipt(r DocumentRow, mode Mode) Receipt {
	total, paid := types.RoundMoney(r.Total), types.RoundMoney(r.Paid)
	rec := Receipt{
		Ref:         fmt.Sprintf("%s-%d", mode, r.ID),
		RawID:       r.ID,
		Number:      r.Number,
		Mode:        mode,
		Type:        r.ReceiptType,
		Date:        r.Date,
		Total:       total,
		Paid:        paid,
		Outstanding: receipt.Outstanding(paid, total),
		Status:      receipt.Label(r.Status),
		StatusCode:  r.Status,
		UserID:      r.UserID,
	}
	if r.PartyID != nil {
		rec.Party = &Party{ID: *r.PartyID, Name: entity.StrVal(r.PartyName)}
	}
	return rec
}

// SaleMovements lists sales with payments and the cashboxes they used.
func (s *Service) SaleMovements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	filter = normalizeMovementFilter(filter)
	rows, err := s.repo.ListSaleDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list sale movements: %w", err)
	}
	return toMovements(rows), nil
}

// RestockMovements lists restocks with payments and the cashboxes they used.
func (s *Service) RestockMovements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	filter = normalizeMovementFilter(filter)
	rows, err := s.repo.ListRestockDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list restock movements: %w", err)
	}
	return toMovements(rows), nil
}

func normalizeMovementFilter(f MovementFilter) MovementFilter {
	f.Limit = clampLimit(f.Limit, 500, 2000)
	f.CashboxCode = strings.ToUpper(strings.TrimSpace(f.CashboxCode))
	f.Search = strings.TrimSpace(f.Search)
	f.SearchID = nil
	if f.Search != "" {
		if v, err := id.Parse(f.Search); err == nil {
			f.SearchID = &v
		}
	}
	return f
}

func toMovements(rows []DocumentRow) []Movement {
	out := make([]Movement, 0, len(rows))
	for _, r := range rows {
		total, paid := types.RoundMoney(r.Total), types.RoundMoney(r.Paid)
		cashboxes := r.Cashboxes
		if cashboxes == nil {
			cashboxes = []string{}
		}
		out = append(out, Movement{
			ID:          r.ID,
			Number:      r.Number,
			Date:        r.Date,
			PartyID:     r.PartyID,
			PartyName:   r.PartyName,
			Total:       total,
			Paid:        paid,
			Outstanding: receipt.Outstanding(paid, total),
			Note:        r.Note,
			Status:      receipt.Label(r.Status),
			StatusCode:  r.Status,
			Cashboxes:   cashboxes,
			UserID:      r.UserID,
		})
	}
	return out
}

// DebtOverview totals restocks per supplier, largest outstanding first.
func (s *Service) DebtOverview(ctx context.Context) (*DebtOverview, error) {
	rows, err := s.repo.SupplierDebts(ctx)
	if err != nil {
		return nil, fmt.Errorf("supplier debts: %w", err)
	}

	overview := &DebtOverview{Suppliers: make([]SupplierDebt, 0, len(rows))}
	var outstanding []types.Money
	for _, r := range rows {
		if !r.Total.IsPositive() {
			continue
		}
		name := entity.StrVal(r.SupplierName)
		if name == "" {
			name = "-"
		}
		d := SupplierDebt{
			SupplierID:   r.SupplierID,
			SupplierName: name,
			RestockCount: r.RestockCount,
			Total:        types.RoundMoney(r.Total),
			Paid:         types.RoundMoney(r.Paid),
		}
		d.Outstanding = receipt.Outstanding(d.Paid, d.Total)
		overview.Suppliers = append(overview.Suppliers, d)
		outstanding = append(outstanding, d.Outstanding)
	}

	sort.SliceStable(overview.Suppliers, func(i, j int) bool {
		return overview.Suppliers[i].Outstanding.GreaterThan(overview.Suppliers[j].Outstanding)
	})
	overview.TotalOutstanding = types.SumMoney(outstanding...)
	return overview, nil
}

// DebtDetail returns one supplier's restocks and payments. An unknown
// supplier id yields a placeholder supplier and empty lists.
func (s *Service) DebtDetail(ctx context.Context, supplierID id.ID) (*DebtDetail, error) {
	sup, err := s.repo.GetSupplier(ctx, supplierID)
	if err != nil {
		if !apperror.IsNotFound(err) {
			return nil, fmt.Errorf("get supplier: %w", err)
		}
		sup = entity.Supplier{ID: supplierID, Name: fmt.Sprintf("Supplier #%d", supplierID)}
	}

	rows, err := s.repo.SupplierRestockBalances(ctx, supplierID)
	if err != nil {
		return nil, fmt.Errorf("supplier restocks: %w", err)
	}
	payments, err := s.repo.SupplierPayments(ctx, supplierID)
	if err != nil {
		return nil, fmt.Errorf("supplier payments: %w", err)
	}

	detail := &DebtDetail{
		Supplier: sup,
		Restocks: make([]RestockDebt, 0, len(rows)),
		Payments: payments,
	}
	if detail.Payments == nil {
		detail.Payments = []SupplierPayment{}
	}

	var totals, paids []types.Money
	for _, r := range rows {
		total, paid := types.RoundMoney(r.Total), types.RoundMoney(r.Paid)
		d := RestockDebt{
			ID:          r.ID,
			Number:      r.Number,
			Date:        r.EffectiveDate(),
			Total:       total,
			Paid:        paid,
			Outstanding: receipt.Outstanding(paid, total),
			Status:      r.Status,
		}
		if d.Status == "" {
			d.Status = entity.StatusUnpaid
		}
		if m, ok := r.Override().Manual(); ok {
			d.ManualStatus = &m
		}
		detail.Restocks = append(detail.Restocks, d)
		totals = append(totals, total)
		paids = append(paids, paid)
	}

	detail.Summary.Total = types.SumMoney(totals...)
	detail.Summary.Paid = types.SumMoney(paids...)
	detail.Summary.Outstanding = receipt.Outstanding(detail.Summary.Paid, detail.Summary.Total)
	return detail, nil
}
