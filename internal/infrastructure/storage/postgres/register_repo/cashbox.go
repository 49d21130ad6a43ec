// Package register_repo provides the PostgreSQL cash register: cashboxes,
// document payments and the append-only cashbox ledger.
package register_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
	"retailcore/internal/domain/cashbox"
	"retailcore/internal/infrastructure/storage/postgres"
)

const (
	cashboxesTable = "cashboxes"
	paymentsTable  = "payments"
	entriesTable   = "cashbox_entries"
)

var (
	cashboxCols = postgres.ExtractDBColumns[entity.Cashbox]()
	paymentCols = postgres.ExtractDBColumns[entity.Payment]()
	entryCols   = postgres.ExtractDBColumns[entity.CashboxEntry]()
)

var _ cashbox.Repository = (*CashboxRepo)(nil)

// CashboxRepo implements cashbox.Repository.
type CashboxRepo struct {
	postgres.Repo
}

// NewCashboxRepo creates a new cash register repository.
func NewCashboxRepo(txm *postgres.TxManager) *CashboxRepo {
	return &CashboxRepo{Repo: postgres.NewRepo(txm)}
}

func (r *CashboxRepo) GetCashbox(ctx context.Context, cashboxID id.ID) (entity.Cashbox, error) {
	var cb entity.Cashbox
	q := postgres.Builder().Select(cashboxCols...).From(cashboxesTable).Where(squirrel.Eq{"id": cashboxID})
	err := r.Get(ctx, &cb, q, "cashbox", cashboxID)
	return cb, err
}

func (r *CashboxRepo) GetCashboxByCode(ctx context.Context, code string) (entity.Cashbox, error) {
	var cb entity.Cashbox
	q := postgres.Builder().Select(cashboxCols...).From(cashboxesTable).
		Where("UPPER(code) = UPPER(?)", strings.TrimSpace(code))
	err := r.Get(ctx, &cb, q, "cashbox", code)
	return cb, err
}

func (r *CashboxRepo) ListCashboxes(ctx context.Context) ([]entity.Cashbox, error) {
	list := []entity.Cashbox{}
	q := postgres.Builder().Select(cashboxCols...).From(cashboxesTable).OrderBy("code")
	if err := r.Select(ctx, &list, q); err != nil {
		return nil, fmt.Errorf("list cashboxes: %w", err)
	}
	return list, nil
}

// CreateCashbox inserts a cashbox. Codes are stored upper-case and unique.
func (r *CashboxRepo) CreateCashbox(ctx context.Context, cb *entity.Cashbox) error {
	cb.Code = strings.ToUpper(strings.TrimSpace(cb.Code))
	q := postgres.Builder().Insert(cashboxesTable).
		SetMap(postgres.InsertMap(cb, "id")).
		Suffix("RETURNING id")
	if err := r.QueryRow(ctx, q, &cb.ID); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewConflict(fmt.Sprintf("cashbox %q already exists", cb.Code))
		}
		return fmt.Errorf("insert cashbox: %w", err)
	}
	return nil
}

const signedAmount = "CASE WHEN e.direction = 'out' THEN -e.amount ELSE e.amount END"

func balancesQuery() squirrel.SelectBuilder {
	return postgres.Builder().
		Select("c.id", "COALESCE(SUM("+signedAmount+"), 0) AS balance").
		From(cashboxesTable + " c").
		LeftJoin(entriesTable + " e ON e.cashbox_id = c.id").
		GroupBy("c.id")
}

// CashboxBalances reports every cashbox, zero when it has no entries.
func (r *CashboxRepo) CashboxBalances(ctx context.Context) (map[id.ID]types.Money, error) {
	var rows []struct {
		ID      id.ID       `db:"id"`
		Balance types.Money `db:"balance"`
	}
	if err := r.Select(ctx, &rows, balancesQuery()); err != nil {
		return nil, fmt.Errorf("cashbox balances: %w", err)
	}
	out := make(map[id.ID]types.Money, len(rows))
	for _, row := range rows {
		out[row.ID] = row.Balance
	}
	return out, nil
}

// --- Payments ---

func (r *CashboxRepo) CreatePayment(ctx context.Context, p *entity.Payment) error {
	exclude := []string{"id"}
	if p.CreatedAt.IsZero() {
		exclude = append(exclude, "created_at")
	}
	q := postgres.Builder().Insert(paymentsTable).
		SetMap(postgres.InsertMap(p, exclude...)).
		Suffix("RETURNING id, created_at")
	if err := r.QueryRow(ctx, q, &p.ID, &p.CreatedAt); err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// paymentsOf matches the payments of one document.
func paymentsOf(kind entity.PaymentKind, docID id.ID) squirrel.Sqlizer {
	switch kind {
	case entity.PaymentSale:
		return squirrel.Eq{"kind": kind, "sale_id": docID}
	case entity.PaymentRestock:
		return squirrel.Eq{"kind": kind, "restock_id": docID}
	}
	return squirrel.Expr("FALSE")
}

func (r *CashboxRepo) ListPayments(ctx context.Context, kind entity.PaymentKind, docID id.ID) ([]entity.Payment, error) {
	list := []entity.Payment{}
	q := postgres.Builder().Select(paymentCols...).From(paymentsTable).
		Where(paymentsOf(kind, docID)).
		OrderBy("created_at", "id")
	if err := r.Select(ctx, &list, q); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return list, nil
}

func (r *CashboxRepo) SumPayments(ctx context.Context, kind entity.PaymentKind, docID id.ID) (types.Money, error) {
	sum := types.Zero()
	q := postgres.Builder().Select("COALESCE(SUM(amount), 0)").From(paymentsTable).Where(paymentsOf(kind, docID))
	if err := r.QueryRow(ctx, q, &sum); err != nil {
		return types.Zero(), fmt.Errorf("sum payments: %w", err)
	}
	return sum, nil
}

// --- Ledger ---

// AppendEntry lets the database stamp occurred_at when the caller left it
// empty, so it equals created_at.
func (r *CashboxRepo) AppendEntry(ctx context.Context, e *entity.CashboxEntry) error {
	exclude := []string{"id", "created_at"}
	if e.OccurredAt.IsZero() {
		exclude = append(exclude, "occurred_at")
	}
	q := postgres.Builder().Insert(entriesTable).
		SetMap(postgres.InsertMap(e, exclude...)).
		Suffix("RETURNING id, occurred_at, created_at")
	if err := r.QueryRow(ctx, q, &e.ID, &e.OccurredAt, &e.CreatedAt); err != nil {
		return fmt.Errorf("append cashbox entry: %w", err)
	}
	return nil
}

func entriesQuery(f cashbox.EntryFilter) squirrel.SelectBuilder {
	q := postgres.Builder().Select(entryCols...).From(entriesTable).
		OrderBy("occurred_at DESC", "id DESC")
	if f.CashboxID != nil {
		q = q.Where(squirrel.Eq{"cashbox_id": *f.CashboxID})
	}
	if len(f.Kinds) > 0 {
		q = q.Where(squirrel.Eq{"kind": f.Kinds})
	}
	if f.ReferenceType != "" {
		q = q.Where(squirrel.Eq{"reference_type": f.ReferenceType})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"occurred_at": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.LtOrEq{"occurred_at": *f.To})
	}
	if f.Search != "" {
		q = q.Where(squirrel.ILike{"note": "%" + f.Search + "%"})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	return q
}

func (r *CashboxRepo) ListEntries(ctx context.Context, f cashbox.EntryFilter) ([]entity.CashboxEntry, error) {
	list := []entity.CashboxEntry{}
	if err := r.Select(ctx, &list, entriesQuery(f)); err != nil {
		return nil, fmt.Errorf("list cashbox entries: %w", err)
	}
	return list, nil
}
