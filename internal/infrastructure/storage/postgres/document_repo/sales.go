package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/domain/sales"
	"retailcore/internal/infrastructure/storage/postgres"
)

var _ sales.Repository = (*SaleRepo)(nil)

// SaleRepo stores sale headers, lines and the units linked to lines.
type SaleRepo struct {
	postgres.Repo
	batch *postgres.BatchInserter
}

// NewSaleRepo creates the sale repository.
func NewSaleRepo(txm *postgres.TxManager) *SaleRepo {
	return &SaleRepo{Repo: postgres.NewRepo(txm), batch: postgres.NewBatchInserter(txm)}
}

func (r *SaleRepo) CreateSale(ctx context.Context, sale *entity.Sale) error {
	q := postgres.Builder().Insert(tableSales).
		SetMap(postgres.InsertMap(sale, "id", "created_at")).
		Suffix("RETURNING id, created_at")
	if err := r.QueryRow(ctx, q, &sale.ID, &sale.CreatedAt); err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

func (r *SaleRepo) GetSale(ctx context.Context, saleID id.ID) (entity.Sale, error) {
	var sale entity.Sale
	q := postgres.Builder().Select(saleCols...).From(tableSales).Where(squirrel.Eq{"id": saleID})
	err := r.Get(ctx, &sale, q, "sale", saleID)
	return sale, err
}

func (r *SaleRepo) GetSaleForUpdate(ctx context.Context, saleID id.ID) (entity.Sale, error) {
	var sale entity.Sale
	q := postgres.Builder().Select(saleCols...).From(tableSales).
		Where(squirrel.Eq{"id": saleID}).
		Suffix("FOR UPDATE")
	err := r.Get(ctx, &sale, q, "sale", saleID)
	return sale, err
}

// UpdateSale keeps number and created_at.
func (r *SaleRepo) UpdateSale(ctx context.Context, sale *entity.Sale) error {
	q := postgres.Builder().Update(tableSales).
		SetMap(postgres.InsertMap(sale, "id", "number", "created_at")).
		Where(squirrel.Eq{"id": sale.ID})
	return r.ExecOne(ctx, q, "sale", sale.ID)
}

func (r *SaleRepo) UpdateSaleStatus(ctx context.Context, sale *entity.Sale) error {
	q := postgres.Builder().Update(tableSales).
		SetMap(statusSet(sale.Status, sale.StatusColumns)).
		Where(squirrel.Eq{"id": sale.ID})
	return r.ExecOne(ctx, q, "sale", sale.ID)
}

// CreateSaleLine inserts the line and copies its unit links.
func (r *SaleRepo) CreateSaleLine(ctx context.Context, line *entity.SaleLine) error {
	q := postgres.Builder().Insert(tableSaleLines).
		SetMap(postgres.InsertMap(line, "id")).
		Suffix("RETURNING id")
	if err := r.QueryRow(ctx, q, &line.ID); err != nil {
		return fmt.Errorf("insert sale line: %w", err)
	}

	if len(line.UnitIDs) == 0 {
		return nil
	}
	rows := make([][]any, len(line.UnitIDs))
	for i, unitID := range line.UnitIDs {
		rows[i] = []any{line.ID, unitID}
	}
	if _, err := r.batch.CopyFromSlice(ctx, tableSaleLineUnits, []string{"sale_line_id", "unit_id"}, rows); err != nil {
		return fmt.Errorf("link sale line units: %w", err)
	}
	return nil
}

// saleLineRow carries the aggregated unit links next to the line.
type saleLineRow struct {
	entity.SaleLine
	LinkedUnits []id.ID `db:"unit_ids"`
}

// saleLinesQuery reads lines with their unit ids. The ids come from a
// correlated subquery because FOR UPDATE does not allow GROUP BY.
func saleLinesQuery(saleID id.ID, forUpdate bool) squirrel.SelectBuilder {
	q := postgres.Builder().Select(qualify("sl", saleLineCols)...).
		Column("ARRAY(SELECT slu.unit_id FROM " + tableSaleLineUnits + " slu WHERE slu.sale_line_id = sl.id ORDER BY slu.unit_id) AS unit_ids").
		From(tableSaleLines + " sl").
		Where(squirrel.Eq{"sl.sale_id": saleID}).
		OrderBy("sl.position", "sl.id")
	if forUpdate {
		q = q.Suffix("FOR UPDATE OF sl")
	}
	return q
}

func (r *SaleRepo) ListSaleLines(ctx context.Context, saleID id.ID) ([]entity.SaleLine, error) {
	return r.listLines(ctx, saleLinesQuery(saleID, false))
}

func (r *SaleRepo) ListSaleLinesForUpdate(ctx context.Context, saleID id.ID) ([]entity.SaleLine, error) {
	return r.listLines(ctx, saleLinesQuery(saleID, true))
}

func (r *SaleRepo) listLines(ctx context.Context, q squirrel.SelectBuilder) ([]entity.SaleLine, error) {
	var rows []saleLineRow
	if err := r.Select(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("list sale lines: %w", err)
	}
	lines := make([]entity.SaleLine, len(rows))
	for i, row := range rows {
		lines[i] = row.SaleLine
		if len(row.LinkedUnits) > 0 {
			lines[i].UnitIDs = row.LinkedUnits
		}
	}
	return lines, nil
}

// DeleteSaleLines relies on ON DELETE CASCADE for the unit links.
func (r *SaleRepo) DeleteSaleLines(ctx context.Context, saleID id.ID) error {
	if _, err := r.Exec(ctx, postgres.Builder().Delete(tableSaleLines).Where(squirrel.Eq{"sale_id": saleID})); err != nil {
		return fmt.Errorf("delete sale lines: %w", err)
	}
	return nil
}
