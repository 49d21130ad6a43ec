package cashbox

import (
	"context"
	"time"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
)

// Repository defines storage for cashboxes, payments and ledger entries.
type Repository interface {
	GetCashbox(ctx context.Context, cashboxID id.ID) (entity.Cashbox, error)
	GetCashboxByCode(ctx context.Context, code string) (entity.Cashbox, error)
	ListCashboxes(ctx context.Context) ([]entity.Cashbox, error)
	// CashboxBalances sums signed entry amounts per cashbox.
	CashboxBalances(ctx context.Context) (map[id.ID]types.Money, error)

	CreatePayment(ctx context.Context, p *entity.Payment) error
	// ListPayments returns the payments of one document, oldest first.
	ListPayments(ctx context.Context, kind entity.PaymentKind, docID id.ID) ([]entity.Payment, error)
	SumPayments(ctx context.Context, kind entity.PaymentKind, docID id.ID) (types.Money, error)

	// AppendEntry inserts a ledger entry. Entries are never updated.
	AppendEntry(ctx context.Context, e *entity.CashboxEntry) error
	ListEntries(ctx context.Context, filter EntryFilter) ([]entity.CashboxEntry, error)
}

// EntryFilter selects ledger entries. Results are newest first
// (occurred_at, id).
type EntryFilter struct {
	CashboxID     *id.ID
	Kinds         []entity.EntryKind
	ReferenceType string
	From          *time.Time
	To            *time.Time
	// Search matches the note case-insensitively.
	Search string
	Limit  int
}

// BalanceCache stores derived balances between ledger writes.
type BalanceCache interface {
	GetBalances(ctx context.Context) (map[id.ID]types.Money, bool)
	SetBalances(ctx context.Context, balances map[id.ID]types.Money)
	InvalidateBalances(ctx context.Context)
}

type noCache struct{}

func (noCache) GetBalances(context.Context) (map[id.ID]types.Money, bool) { return nil, false }
func (noCache) SetBalances(context.Context, map[id.ID]types.Money)        {}
func (noCache) InvalidateBalances(context.Context)                        {}

// Defaults are the cashboxes every installation starts with.
func Defaults() []entity.Cashbox {
	return []entity.Cashbox{
		{Code: "A", Label: "Cashbox A", IsActive: true},
		{Code: "B", Label: "Cashbox B", IsActive: true},
		{Code: "C", Label: "Cashbox C", IsActive: true},
	}
}
