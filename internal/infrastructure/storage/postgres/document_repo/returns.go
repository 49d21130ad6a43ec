package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/domain/returns"
	"retailcore/internal/infrastructure/storage/postgres"
)

var _ returns.Repository = (*ReturnRepo)(nil)

// ReturnRepo stores inventory returns.
type ReturnRepo struct {
	postgres.Repo
}

// NewReturnRepo creates the return repository.
func NewReturnRepo(txm *postgres.TxManager) *ReturnRepo {
	return &ReturnRepo{Repo: postgres.NewRepo(txm)}
}

func (r *ReturnRepo) CreateReturn(ctx context.Context, ret *entity.InventoryReturn) error {
	q := postgres.Builder().Insert(tableReturns).
		SetMap(postgres.InsertMap(ret, "id", "created_at")).
		Suffix("RETURNING id, created_at")
	if err := r.QueryRow(ctx, q, &ret.ID, &ret.CreatedAt); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewConflict("inventory unit already has a pending return").
				WithDetail("unit_id", ret.UnitID)
		}
		return fmt.Errorf("insert inventory return: %w", err)
	}
	return nil
}

func (r *ReturnRepo) GetReturnForUpdate(ctx context.Context, returnID id.ID) (entity.InventoryReturn, error) {
	var ret entity.InventoryReturn
	q := postgres.Builder().Select(returnCols...).From(tableReturns).
		Where(squirrel.Eq{"id": returnID}).
		Suffix("FOR UPDATE")
	err := r.Get(ctx, &ret, q, "inventory return", returnID)
	return ret, err
}

func (r *ReturnRepo) HasPendingReturn(ctx context.Context, unitID id.ID) (bool, error) {
	var exists bool
	sub := postgres.Builder().Select("1").From(tableReturns).
		Where(squirrel.Eq{"unit_id": unitID, "status": entity.ReturnPending})
	q := postgres.Builder().Select().Column(squirrel.Expr("EXISTS (?)", sub))
	if err := r.QueryRow(ctx, q, &exists); err != nil {
		return false, fmt.Errorf("check pending return: %w", err)
	}
	return exists, nil
}

// UpdateReturn keeps unit_id and created_at.
func (r *ReturnRepo) UpdateReturn(ctx context.Context, ret *entity.InventoryReturn) error {
	q := postgres.Builder().Update(tableReturns).
		SetMap(postgres.InsertMap(ret, "id", "unit_id", "created_at")).
		Where(squirrel.Eq{"id": ret.ID})
	return r.ExecOne(ctx, q, "inventory return", ret.ID)
}

// latestSaleLine picks the newest sale line that sold the unit.
const latestSaleLine = `LEFT JOIN LATERAL (
	SELECT sl.id, sl.sale_id, sl.price_each
	FROM sale_line_units slu
	JOIN sale_lines sl ON sl.id = slu.sale_line_id
	WHERE slu.unit_id = r.unit_id
	ORDER BY sl.id DESC
	LIMIT 1
) last_line ON TRUE`

func listReturnsQuery(f returns.ListFilter) squirrel.SelectBuilder {
	q := postgres.Builder().Select(qualify("r", returnCols)...).
		Columns(
			"u.barcode AS unit_barcode",
			"u.status AS unit_status",
			"u.item_id",
			"i.name AS item_name",
			"s.name AS supplier_name",
			"last_line.sale_id",
			"last_line.id AS sale_line_id",
			"last_line.price_each AS unit_price",
		).
		From(tableReturns + " r").
		Join("inventory_units u ON u.id = r.unit_id").
		Join("items i ON i.id = u.item_id").
		LeftJoin("suppliers s ON s.id = r.supplier_id").
		JoinClause(latestSaleLine).
		OrderBy("(r.status = 'pending') DESC", "r.created_at DESC", "r.id DESC")
	if f.Status != "" {
		q = q.Where(squirrel.Eq{"r.status": f.Status})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	return q
}

func (r *ReturnRepo) ListReturns(ctx context.Context, f returns.ListFilter) ([]returns.Row, error) {
	rows := []returns.Row{}
	if err := r.Select(ctx, &rows, listReturnsQuery(f)); err != nil {
		return nil, fmt.Errorf("list inventory returns: %w", err)
	}
	return rows, nil
}
