package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
	"retailcore/internal/domain/inventory"
	"retailcore/internal/infrastructure/storage/postgres"
)

var _ inventory.Repository = (*InventoryRepo)(nil)

// InventoryRepo stores items, rolls and inventory units.
type InventoryRepo struct {
	postgres.Repo
	batch *postgres.BatchInserter
}

// NewInventoryRepo creates the inventory repository.
func NewInventoryRepo(txm *postgres.TxManager) *InventoryRepo {
	return &InventoryRepo{Repo: postgres.NewRepo(txm), batch: postgres.NewBatchInserter(txm)}
}

// --- Items ---

func (r *InventoryRepo) GetItem(ctx context.Context, itemID id.ID) (entity.Item, error) {
	var item entity.Item
	q := postgres.Builder().Select(itemCols...).From(tableItems).Where(squirrel.Eq{"id": itemID})
	err := r.Get(ctx, &item, q, "item", itemID)
	return item, err
}

func (r *InventoryRepo) GetItems(ctx context.Context, ids []id.ID) (map[id.ID]entity.Item, error) {
	out := make(map[id.ID]entity.Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var items []entity.Item
	q := postgres.Builder().Select(itemCols...).From(tableItems).Where(squirrel.Eq{"id": ids})
	if err := r.Select(ctx, &items, q); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	for _, item := range items {
		out[item.ID] = item
	}
	return out, nil
}

func (r *InventoryRepo) CreateItem(ctx context.Context, item *entity.Item) error {
	q := postgres.Builder().Insert(tableItems).
		SetMap(postgres.InsertMap(item, generated...)).
		Suffix("RETURNING id, created_at")
	if err := r.QueryRow(ctx, q, &item.ID, &item.CreatedAt); err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (r *InventoryRepo) AddItemStock(ctx context.Context, itemID id.ID, delta types.Length) (bool, error) {
	q := postgres.Builder().Update(tableItems).
		Set("stock", squirrel.Expr("stock + ?", delta)).
		Where(squirrel.Eq{"id": itemID}).
		Where("stock + ? >= 0", delta)
	tag, err := r.Exec(ctx, q)
	if err != nil {
		return false, fmt.Errorf("add item stock: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// --- Rolls ---

func (r *InventoryRepo) rollSelect() squirrel.SelectBuilder {
	return postgres.Builder().Select(rollCols...).From(tableRolls)
}

func rollForCutQuery(itemID id.ID, minRemaining types.Length, exclude []id.ID) squirrel.SelectBuilder {
	return postgres.Builder().Select(rollCols...).From(tableRolls).
		Where(squirrel.Eq{"item_id": itemID}).
		Where(squirrel.GtOrEq{"remaining_m": minRemaining}).
		Where(squirrel.NotEq{"id": exclude}).
		OrderBy("created_at", "id").
		Limit(1).
		Suffix("FOR UPDATE")
}

func (r *InventoryRepo) GetRoll(ctx context.Context, rollID id.ID) (entity.Roll, error) {
	var roll entity.Roll
	err := r.Get(ctx, &roll, r.rollSelect().Where(squirrel.Eq{"id": rollID}), "roll", rollID)
	return roll, err
}

func (r *InventoryRepo) GetRollForUpdate(ctx context.Context, rollID id.ID) (entity.Roll, error) {
	var roll entity.Roll
	q := r.rollSelect().Where(squirrel.Eq{"id": rollID}).Suffix("FOR UPDATE")
	err := r.Get(ctx, &roll, q, "roll", rollID)
	return roll, err
}

// FindRollForCut waits on locked rolls instead of skipping them: a roll
// held by a concurrent sale may still have enough length once it commits.
func (r *InventoryRepo) FindRollForCut(ctx context.Context, itemID id.ID, minRemaining types.Length, exclude []id.ID) (entity.Roll, bool, error) {
	var roll entity.Roll
	found, err := r.Find(ctx, &roll, rollForCutQuery(itemID, minRemaining, exclude))
	if err != nil {
		return entity.Roll{}, false, fmt.Errorf("find roll for cut: %w", err)
	}
	return roll, found, nil
}

func (r *InventoryRepo) ListRolls(ctx context.Context, itemID id.ID) ([]entity.Roll, error) {
	rolls := []entity.Roll{}
	q := r.rollSelect().Where(squirrel.Eq{"item_id": itemID}).OrderBy("created_at", "id")
	if err := r.Select(ctx, &rolls, q); err != nil {
		return nil, fmt.Errorf("list rolls: %w", err)
	}
	return rolls, nil
}

func (r *InventoryRepo) CreateRoll(ctx context.Context, roll *entity.Roll) error {
	q := postgres.Builder().Insert(tableRolls).
		SetMap(postgres.InsertMap(roll, generated...)).
		Suffix("RETURNING id, created_at")
	if err := r.QueryRow(ctx, q, &roll.ID, &roll.CreatedAt); err != nil {
		return fmt.Errorf("insert roll: %w", err)
	}
	return nil
}

func (r *InventoryRepo) AddRollRemaining(ctx context.Context, rollID id.ID, delta types.Length) (bool, error) {
	q := postgres.Builder().Update(tableRolls).
		Set("remaining_m", squirrel.Expr("remaining_m + ?", delta)).
		Where(squirrel.Eq{"id": rollID}).
		Where("remaining_m + ? BETWEEN 0 AND length_m", delta)
	tag, err := r.Exec(ctx, q)
	if err != nil {
		return false, fmt.Errorf("add roll remaining: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *InventoryRepo) DeleteRoll(ctx context.Context, rollID id.ID) error {
	return r.ExecOne(ctx, postgres.Builder().Delete(tableRolls).Where(squirrel.Eq{"id": rollID}), "roll", rollID)
}

func (r *InventoryRepo) RollHasSales(ctx context.Context, rollID id.ID) (bool, error) {
	var exists bool
	q := postgres.Builder().Select().
		Column(squirrel.Expr("EXISTS (?)", postgres.Builder().Select("1").From("sale_lines").Where(squirrel.Eq{"roll_id": rollID})))
	if err := r.QueryRow(ctx, q, &exists); err != nil {
		return false, fmt.Errorf("check roll sales: %w", err)
	}
	return exists, nil
}

// --- Units ---

func (r *InventoryRepo) unitSelect() squirrel.SelectBuilder {
	return postgres.Builder().Select(unitCols...).From(tableUnits)
}

func claimUnitsQuery(itemID id.ID, limit int, exclude []id.ID) squirrel.SelectBuilder {
	return postgres.Builder().Select(unitCols...).From(tableUnits).
		Where(squirrel.Eq{"item_id": itemID, "status": entity.UnitAvailable}).
		Where(squirrel.NotEq{"id": exclude}).
		OrderBy("created_at", "id").
		Limit(uint64(limit)).
		Suffix("FOR UPDATE SKIP LOCKED")
}

func (r *InventoryRepo) GetUnit(ctx context.Context, unitID id.ID) (entity.InventoryUnit, error) {
	var u entity.InventoryUnit
	err := r.Get(ctx, &u, r.unitSelect().Where(squirrel.Eq{"id": unitID}), "inventory unit", unitID)
	return u, err
}

func (r *InventoryRepo) GetUnits(ctx context.Context, ids []id.ID) ([]entity.InventoryUnit, error) {
	return r.listUnits(ctx, ids, "")
}

func (r *InventoryRepo) GetUnitForUpdate(ctx context.Context, unitID id.ID) (entity.InventoryUnit, error) {
	var u entity.InventoryUnit
	q := r.unitSelect().Where(squirrel.Eq{"id": unitID}).Suffix("FOR UPDATE")
	err := r.Get(ctx, &u, q, "inventory unit", unitID)
	return u, err
}

// GetUnitsForUpdate locks in id order so concurrent callers cannot deadlock.
func (r *InventoryRepo) GetUnitsForUpdate(ctx context.Context, ids []id.ID) ([]entity.InventoryUnit, error) {
	return r.listUnits(ctx, ids, "FOR UPDATE")
}

func (r *InventoryRepo) listUnits(ctx context.Context, ids []id.ID, suffix string) ([]entity.InventoryUnit, error) {
	units := []entity.InventoryUnit{}
	if len(ids) == 0 {
		return units, nil
	}
	q := r.unitSelect().Where(squirrel.Eq{"id": ids}).OrderBy("id")
	if suffix != "" {
		q = q.Suffix(suffix)
	}
	if err := r.Select(ctx, &units, q); err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	return units, nil
}

func (r *InventoryRepo) ClaimOldestUnits(ctx context.Context, itemID id.ID, limit int, exclude []id.ID) ([]entity.InventoryUnit, error) {
	units := []entity.InventoryUnit{}
	if limit <= 0 {
		return units, nil
	}
	if err := r.Select(ctx, &units, claimUnitsQuery(itemID, limit, exclude)); err != nil {
		return nil, fmt.Errorf("claim units: %w", err)
	}
	return units, nil
}

// CreateUnits inserts all units in one round-trip.
func (r *InventoryRepo) CreateUnits(ctx context.Context, units []*entity.InventoryUnit) error {
	queries := make([]postgres.BatchQuery, 0, len(units))
	for _, u := range units {
		sql, args, err := postgres.Builder().Insert(tableUnits).
			SetMap(postgres.InsertMap(u, generated...)).
			Suffix("RETURNING id, created_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("build unit insert: %w", err)
		}
		queries = append(queries, postgres.BatchQuery{SQL: sql, Args: args})
	}
	err := r.batch.QueryRows(ctx, queries, func(i int, row pgx.Row) error {
		return row.Scan(&units[i].ID, &units[i].CreatedAt)
	})
	if err != nil {
		return fmt.Errorf("insert units: %w", err)
	}
	return nil
}

func (r *InventoryRepo) SetUnitStatus(ctx context.Context, ids []id.ID, status entity.UnitStatus) error {
	if len(ids) == 0 {
		return nil
	}
	distinct := make(map[id.ID]struct{}, len(ids))
	for _, v := range ids {
		distinct[v] = struct{}{}
	}
	q := postgres.Builder().Update(tableUnits).Set("status", status).Where(squirrel.Eq{"id": ids})
	tag, err := r.Exec(ctx, q)
	if err != nil {
		return fmt.Errorf("set unit status: %w", err)
	}
	if int(tag.RowsAffected()) != len(distinct) {
		return apperror.NewNotFound("inventory unit", ids)
	}
	return nil
}

func (r *InventoryRepo) ExistingBarcodes(ctx context.Context, barcodes []string) ([]string, error) {
	out := []string{}
	if len(barcodes) == 0 {
		return out, nil
	}
	q := postgres.Builder().Select("DISTINCT barcode").From(tableUnits).
		Where(squirrel.Eq{"barcode": barcodes}).
		OrderBy("barcode")
	if err := r.Select(ctx, &out, q); err != nil {
		return nil, fmt.Errorf("existing barcodes: %w", err)
	}
	return out, nil
}

func (r *InventoryRepo) LatestReturns(ctx context.Context, unitIDs []id.ID) (map[id.ID]entity.InventoryReturn, error) {
	out := map[id.ID]entity.InventoryReturn{}
	if len(unitIDs) == 0 {
		return out, nil
	}
	var list []entity.InventoryReturn
	q := postgres.Builder().Select(returnCols...).From(tableReturns).
		Options("DISTINCT ON (unit_id)").
		Where(squirrel.Eq{"unit_id": unitIDs}).
		OrderBy("unit_id", "created_at DESC", "id DESC")
	if err := r.Select(ctx, &list, q); err != nil {
		return nil, fmt.Errorf("latest returns: %w", err)
	}
	for _, ret := range list {
		out[ret.UnitID] = ret
	}
	return out, nil
}
