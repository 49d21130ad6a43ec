package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/domain/restocks"
	"retailcore/internal/domain/suppliers"
	"retailcore/internal/infrastructure/storage/postgres"
)

var (
	_ restocks.Repository  = (*RestockRepo)(nil)
	_ suppliers.Repository = (*RestockRepo)(nil)
)

// SupplierGetter reads a supplier.
type SupplierGetter interface {
	GetSupplier(ctx context.Context, supplierID id.ID) (entity.Supplier, error)
}

// RestockRepo stores restock headers and lines, and serves the supplier
// payment allocator.
type RestockRepo struct {
	postgres.Repo
	suppliers SupplierGetter
}

// NewRestockRepo creates the restock repository.
func NewRestockRepo(txm *postgres.TxManager, suppliers SupplierGetter) *RestockRepo {
	return &RestockRepo{Repo: postgres.NewRepo(txm), suppliers: suppliers}
}

func (r *RestockRepo) CreateRestock(ctx context.Context, rs *entity.Restock) error {
	q := postgres.Builder().Insert(tableRestocks).
		SetMap(postgres.InsertMap(rs, "id", "created_at")).
		Suffix("RETURNING id, created_at")
	if err := r.QueryRow(ctx, q, &rs.ID, &rs.CreatedAt); err != nil {
		return fmt.Errorf("insert restock: %w", err)
	}
	return nil
}

func (r *RestockRepo) GetRestock(ctx context.Context, restockID id.ID) (entity.Restock, error) {
	var rs entity.Restock
	q := postgres.Builder().Select(restockCols...).From(tableRestocks).Where(squirrel.Eq{"id": restockID})
	err := r.Get(ctx, &rs, q, "restock", restockID)
	return rs, err
}

func (r *RestockRepo) GetRestockForUpdate(ctx context.Context, restockID id.ID) (entity.Restock, error) {
	var rs entity.Restock
	q := postgres.Builder().Select(restockCols...).From(tableRestocks).
		Where(squirrel.Eq{"id": restockID}).
		Suffix("FOR UPDATE")
	err := r.Get(ctx, &rs, q, "restock", restockID)
	return rs, err
}

func (r *RestockRepo) UpdateRestockStatus(ctx context.Context, rs *entity.Restock) error {
	q := postgres.Builder().Update(tableRestocks).
		SetMap(statusSet(rs.Status, rs.StatusColumns)).
		Where(squirrel.Eq{"id": rs.ID})
	return r.ExecOne(ctx, q, "restock", rs.ID)
}

func (r *RestockRepo) CreateRestockLine(ctx context.Context, line *entity.RestockLine) error {
	q := postgres.Builder().Insert(tableRestockLines).
		SetMap(postgres.InsertMap(line, "id")).
		Suffix("RETURNING id")
	if err := r.QueryRow(ctx, q, &line.ID); err != nil {
		return fmt.Errorf("insert restock line: %w", err)
	}
	if line.RollID == nil {
		return nil
	}
	link := postgres.Builder().Insert(tableRestockRolls).
		Columns("restock_line_id", "roll_id").
		Values(line.ID, *line.RollID)
	if _, err := r.Exec(ctx, link); err != nil {
		return fmt.Errorf("link restock roll: %w", err)
	}
	return nil
}

type restockLineRow struct {
	entity.RestockLine
	CreatedRoll *id.ID `db:"roll_id"`
}

func (r *RestockRepo) ListRestockLines(ctx context.Context, restockID id.ID) ([]entity.RestockLine, error) {
	var rows []restockLineRow
	q := postgres.Builder().Select(qualify("rl", restockLineCols)...).
		Column("rr.roll_id").
		From(tableRestockLines + " rl").
		LeftJoin(tableRestockRolls + " rr ON rr.restock_line_id = rl.id").
		Where(squirrel.Eq{"rl.restock_id": restockID}).
		OrderBy("rl.id")
	if err := r.Select(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("list restock lines: %w", err)
	}
	lines := make([]entity.RestockLine, len(rows))
	for i, row := range rows {
		lines[i] = row.RestockLine
		lines[i].RollID = row.CreatedRoll
	}
	return lines, nil
}

// --- Supplier allocation ---

func (r *RestockRepo) GetSupplier(ctx context.Context, supplierID id.ID) (entity.Supplier, error) {
	return r.suppliers.GetSupplier(ctx, supplierID)
}

// supplierRestocksQuery orders oldest first by business date.
func supplierRestocksQuery(supplierID id.ID) squirrel.SelectBuilder {
	return postgres.Builder().Select(restockCols...).From(tableRestocks).
		Where(squirrel.Eq{"supplier_id": supplierID}).
		OrderBy("COALESCE(date, created_at)", "id").
		Suffix("FOR UPDATE")
}

func (r *RestockRepo) ListSupplierRestocksForUpdate(ctx context.Context, supplierID id.ID) ([]entity.Restock, error) {
	list := []entity.Restock{}
	if err := r.Select(ctx, &list, supplierRestocksQuery(supplierID)); err != nil {
		return nil, fmt.Errorf("list supplier restocks: %w", err)
	}
	return list, nil
}
