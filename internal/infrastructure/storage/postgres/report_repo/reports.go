// Package report_repo provides the read-side queries behind receipts,
// movements and supplier debt.
package report_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/domain/reports"
	"retailcore/internal/infrastructure/storage/postgres"
)

var _ reports.Repository = (*ReportRepo)(nil)

// SupplierGetter reads a supplier.
type SupplierGetter interface {
	GetSupplier(ctx context.Context, supplierID id.ID) (entity.Supplier, error)
}

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	postgres.Repo
	suppliers SupplierGetter
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txm *postgres.TxManager, suppliers SupplierGetter) *ReportRepo {
	return &ReportRepo{Repo: postgres.NewRepo(txm), suppliers: suppliers}
}

// docSource describes how one document table maps onto DocumentRow.
type docSource struct {
	table       string
	dateExpr    string
	partyCol    string
	partyTable  string
	receiptType string
	kind        entity.PaymentKind
	paymentFK   string
}

var (
	saleSource = docSource{
		table:       "sales",
		dateExpr:    "d.date",
		partyCol:    "customer_id",
		partyTable:  "customers",
		receiptType: "d.receipt_type",
		kind:        entity.PaymentSale,
		paymentFK:   "sale_id",
	}
	restockSource = docSource{
		table:       "restocks",
		dateExpr:    "COALESCE(d.date, d.created_at)",
		partyCol:    "supplier_id",
		partyTable:  "suppliers",
		receiptType: "''",
		kind:        entity.PaymentRestock,
		paymentFK:   "restock_id",
	}
)

// documentsQuery lists document headers with their summed payments and the
// distinct cashbox codes those payments used.
func documentsQuery(src docSource, f reports.MovementFilter) squirrel.SelectBuilder {
	payments := fmt.Sprintf(`LEFT JOIN LATERAL (
	SELECT SUM(pm.amount) AS paid,
	       array_agg(DISTINCT cb.code ORDER BY cb.code) FILTER (WHERE cb.code IS NOT NULL) AS codes
	FROM payments pm
	LEFT JOIN cashboxes cb ON cb.id = pm.cashbox_id
	WHERE pm.kind = '%s' AND pm.%s = d.id
) p ON TRUE`, src.kind, src.paymentFK)

	q := postgres.Builder().
		Select(
			"d.id",
			"d.number",
			src.dateExpr+" AS date",
			"d.total",
			"COALESCE(p.paid, 0) AS paid",
			"d.status",
			"d.note",
			src.receiptType+" AS receipt_type",
			"d.user_id",
			"d."+src.partyCol+" AS party_id",
			"party.name AS party_name",
			"COALESCE(p.codes, '{}') AS cashboxes",
		).
		From(src.table + " d").
		LeftJoin(src.partyTable + " party ON party.id = d." + src.partyCol).
		JoinClause(payments).
		OrderBy(src.dateExpr+" DESC", "d.id DESC")

	if f.PartyID != nil {
		q = q.Where(squirrel.Eq{"d." + src.partyCol: *f.PartyID})
	}
	if f.Status != "" {
		q = q.Where(squirrel.Eq{"d.status": f.Status})
	}
	if f.CashboxCode != "" {
		q = q.Where("? = ANY(p.codes)", f.CashboxCode)
	}
	if f.FromDate != nil {
		q = q.Where(src.dateExpr+" >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where(src.dateExpr+" <= ?", *f.ToDate)
	}
	if f.Search != "" {
		match := squirrel.Or{squirrel.ILike{"party.name": "%" + f.Search + "%"}}
		if f.SearchID != nil {
			match = append(match, squirrel.Eq{"d.id": *f.SearchID})
		}
		q = q.Where(match)
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	return q
}

func (r *ReportRepo) listDocuments(ctx context.Context, src docSource, f reports.MovementFilter) ([]reports.DocumentRow, error) {
	rows := []reports.DocumentRow{}
	if err := r.Select(ctx, &rows, documentsQuery(src, f)); err != nil {
		return nil, fmt.Errorf("list %s: %w", src.table, err)
	}
	return rows, nil
}

func (r *ReportRepo) ListSaleDocuments(ctx context.Context, f reports.MovementFilter) ([]reports.DocumentRow, error) {
	return r.listDocuments(ctx, saleSource, f)
}

func (r *ReportRepo) ListRestockDocuments(ctx context.Context, f reports.MovementFilter) ([]reports.DocumentRow, error) {
	return r.listDocuments(ctx, restockSource, f)
}

// restockPaid sums the payments of restock r.
const restockPaid = `LEFT JOIN LATERAL (
	SELECT SUM(amount) AS paid FROM payments WHERE kind = 'restock' AND restock_id = r.id
) p ON TRUE`

// SupplierDebts groups restocks by supplier in order of first restock.
func (r *ReportRepo) SupplierDebts(ctx context.Context) ([]reports.DebtRow, error) {
	rows := []reports.DebtRow{}
	q := postgres.Builder().
		Select(
			"r.supplier_id",
			"s.name AS supplier_name",
			"COUNT(*) AS restock_count",
			"COALESCE(SUM(r.total), 0) AS total",
			"COALESCE(SUM(p.paid), 0) AS paid",
		).
		From("restocks r").
		LeftJoin("suppliers s ON s.id = r.supplier_id").
		JoinClause(restockPaid).
		GroupBy("r.supplier_id", "s.name").
		OrderBy("MIN(r.id)")
	if err := r.Select(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("supplier debts: %w", err)
	}
	return rows, nil
}

func (r *ReportRepo) GetSupplier(ctx context.Context, supplierID id.ID) (entity.Supplier, error) {
	return r.suppliers.GetSupplier(ctx, supplierID)
}

var restockCols = postgres.ExtractDBColumns[entity.Restock]()

func (r *ReportRepo) SupplierRestockBalances(ctx context.Context, supplierID id.ID) ([]reports.RestockBalanceRow, error) {
	cols := make([]string, 0, len(restockCols)+1)
	for _, c := range restockCols {
		cols = append(cols, "r."+c)
	}
	cols = append(cols, "COALESCE(p.paid, 0) AS paid")

	rows := []reports.RestockBalanceRow{}
	q := postgres.Builder().Select(cols...).
		From("restocks r").
		JoinClause(restockPaid).
		Where(squirrel.Eq{"r.supplier_id": supplierID}).
		OrderBy("COALESCE(r.date, r.created_at) DESC", "r.id DESC")
	if err := r.Select(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("supplier restock balances: %w", err)
	}
	return rows, nil
}

func (r *ReportRepo) SupplierPayments(ctx context.Context, supplierID id.ID) ([]reports.SupplierPayment, error) {
	rows := []reports.SupplierPayment{}
	q := postgres.Builder().
		Select("p.id", "p.restock_id", "p.amount", "p.note", "cb.code AS cashbox_code", "p.created_at").
		From("payments p").
		Join("restocks r ON r.id = p.restock_id").
		LeftJoin("cashboxes cb ON cb.id = p.cashbox_id").
		Where(squirrel.Eq{"p.kind": entity.PaymentRestock, "r.supplier_id": supplierID}).
		OrderBy("p.created_at DESC", "p.id DESC")
	if err := r.Select(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("supplier payments: %w", err)
	}
	return rows, nil
}
