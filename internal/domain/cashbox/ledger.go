package cashbox

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/tx"
	"retailcore/internal/core/types"
	"retailcore/pkg/logger"
)

// Ledger records payments and cash movements.
type Ledger struct {
	repo      Repository
	txManager tx.Manager
	cache     BalanceCache
	now       func() time.Time
}

// NewLedger creates a ledger. cache may be nil.
func NewLedger(repo Repository, txManager tx.Manager, cache BalanceCache) *Ledger {
	if cache == nil {
		cache = noCache{}
	}
	return &Ledger{
		repo:      repo,
		txManager: txManager,
		cache:     cache,
		now:       time.Now,
	}
}

// Find returns the selected cashbox or NotFound.
func (l *Ledger) Find(ctx context.Context, sel Selector) (entity.Cashbox, error) {
	switch {
	case id.Valid(sel.ID):
		return l.repo.GetCashbox(ctx, sel.ID)
	case sel.Code != "":
		return l.repo.GetCashboxByCode(ctx, sel.Code)
	default:
		return entity.Cashbox{}, apperror.NewNotFound("cashbox", "")
	}
}

// PaymentCashbox resolves the cashbox a payment goes through. A missing,
// unknown or inactive cashbox is an invalid request.
func (l *Ledger) PaymentCashbox(ctx context.Context, sel Selector) (entity.Cashbox, error) {
	if sel.IsZero() {
		return entity.Cashbox{}, apperror.NewInvalidRequest("Providing a payment requires a valid cashbox")
	}
	cb, err := l.Find(ctx, sel)
	if err != nil {
		if apperror.IsNotFound(err) {
			return entity.Cashbox{}, apperror.NewInvalidRequest("Cashbox %s not found", sel)
		}
		return entity.Cashbox{}, err
	}
	if !cb.IsActive {
		return entity.Cashbox{}, apperror.NewInvalidRequest("Cashbox %s is not active", cb.Code)
	}
	return cb, nil
}

// PaymentInput is money a caller hands over with a document.
type PaymentInput struct {
	Amount  types.Money
	Cashbox Selector
	// Note is kept on the payment, EntryNote on the ledger entry.
	Note      string
	EntryNote string
	Method    string
	Date      *time.Time
}

// PaymentRecord is a payment about to be written with its ledger entry.
type PaymentRecord struct {
	Kind    entity.PaymentKind
	DocID   id.ID
	Amount  types.Money
	Cashbox entity.Cashbox
	// Note is stored on the payment; EntryNote on the ledger entry, falling
	// back to Note.
	Note       string
	EntryNote  string
	Method     string
	OccurredAt *time.Time
	CreatedBy  id.ID
}

// Record writes a payment and its ledger entry. Sale payments flow into the
// cashbox, restock payments flow out. Must run inside the caller's
// transaction.
func (l *Ledger) Record(ctx context.Context, rec PaymentRecord) (entity.Payment, entity.CashboxEntry, error) {
	amount := rec.Amount
	if !amount.IsPositive() || !types.HasMoneyPrecision(amount) {
		return entity.Payment{}, entity.CashboxEntry{}, apperror.NewInvalidRequest("Payment amount must be positive with at most 2 decimals")
	}

	var (
		direction entity.Direction
		ref       string
		payment   = entity.Payment{
			Kind:      rec.Kind,
			Amount:    amount,
			CashboxID: id.Ptr(rec.Cashbox.ID),
			Note:      entity.StrPtr(rec.Note),
		}
	)
	switch rec.Kind {
	case entity.PaymentSale:
		direction, ref = entity.DirectionIn, entity.RefSale
		payment.SaleID = id.Ptr(rec.DocID)
	case entity.PaymentRestock:
		direction, ref = entity.DirectionOut, entity.RefRestock
		payment.RestockID = id.Ptr(rec.DocID)
	default:
		return entity.Payment{}, entity.CashboxEntry{}, fmt.Errorf("unsupported payment kind %q", rec.Kind)
	}

	if err := l.repo.CreatePayment(ctx, &payment); err != nil {
		return entity.Payment{}, entity.CashboxEntry{}, fmt.Errorf("create payment: %w", err)
	}

	note := rec.EntryNote
	if note == "" {
		note = rec.Note
	}
	entry := entity.CashboxEntry{
		CashboxID:     rec.Cashbox.ID,
		Kind:          entity.EntryPayment,
		Direction:     direction,
		Amount:        amount,
		PaymentID:     id.Ptr(payment.ID),
		ReferenceType: entity.StrPtr(ref),
		ReferenceID:   id.Ptr(rec.DocID),
		OccurredAt:    l.occurredAt(rec.OccurredAt),
		Note:          entity.StrPtr(note),
		CreatedBy:     id.Ptr(rec.CreatedBy),
	}
	if rec.Method != "" {
		entry.Meta = map[string]any{"method": rec.Method}
	}
	if err := l.repo.AppendEntry(ctx, &entry); err != nil {
		return entity.Payment{}, entity.CashboxEntry{}, fmt.Errorf("append ledger entry: %w", err)
	}
	return payment, entry, nil
}

// Paid returns the sum of payments recorded against a document.
func (l *Ledger) Paid(ctx context.Context, kind entity.PaymentKind, docID id.ID) (types.Money, error) {
	sum, err := l.repo.SumPayments(ctx, kind, docID)
	if err != nil {
		return types.Zero(), fmt.Errorf("sum payments: %w", err)
	}
	return types.RoundMoney(sum), nil
}

// Payments lists the payments of a document.
func (l *Ledger) Payments(ctx context.Context, kind entity.PaymentKind, docID id.ID) ([]entity.Payment, error) {
	return l.repo.ListPayments(ctx, kind, docID)
}

// Committed drops cached balances. Services call it after a transaction
// that wrote ledger entries has committed.
func (l *Ledger) Committed(ctx context.Context) {
	l.cache.InvalidateBalances(ctx)
}

// ManualEntryRequest is an income or expense entry typed in by an operator.
type ManualEntryRequest struct {
	Kind       entity.EntryKind
	Amount     types.Money
	Cashbox    Selector
	Note       string
	OccurredAt *time.Time
}

// AddManualEntry appends an income (in) or expense (out) entry.
func (l *Ledger) AddManualEntry(ctx context.Context, actor entity.Actor, req ManualEntryRequest) (entity.CashboxEntry, error) {
	var direction entity.Direction
	switch req.Kind {
	case entity.EntryIncome:
		direction = entity.DirectionIn
	case entity.EntryExpense:
		direction = entity.DirectionOut
	default:
		return entity.CashboxEntry{}, apperror.NewInvalidRequest("Kind must be income or expense")
	}
	if req.Amount.LessThan(types.Cent) || !types.HasMoneyPrecision(req.Amount) {
		return entity.CashboxEntry{}, apperror.NewInvalidRequest("Amount must be at least 0.01 with at most 2 decimals")
	}
	if req.Cashbox.IsZero() {
		return entity.CashboxEntry{}, apperror.NewInvalidRequest("Valid cashbox is required")
	}

	var entry entity.CashboxEntry
	err := l.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		cb, err := l.Find(ctx, req.Cashbox)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewInvalidRequest("Valid cashbox is required")
			}
			return err
		}
		entry = entity.CashboxEntry{
			CashboxID:     cb.ID,
			Kind:          req.Kind,
			Direction:     direction,
			Amount:        req.Amount,
			ReferenceType: entity.StrPtr(entity.RefManual),
			OccurredAt:    l.occurredAt(req.OccurredAt),
			Note:          entity.StrPtr(strings.TrimSpace(req.Note)),
			CreatedBy:     id.Ptr(actor.ID),
		}
		return l.repo.AppendEntry(ctx, &entry)
	})
	if err != nil {
		return entity.CashboxEntry{}, err
	}
	l.Committed(ctx)

	logger.Info(ctx, "manual cashbox entry",
		"entry_id", entry.ID,
		"cashbox_id", entry.CashboxID,
		"kind", entry.Kind,
		"amount", entry.Amount,
	)
	return entry, nil
}

// ManualFilter selects manual entries.
type ManualFilter struct {
	Kind    entity.EntryKind
	Cashbox Selector
	From    *time.Time
	To      *time.Time
	Search  string
	Limit   int
}

// EntryView is a ledger entry with its cashbox code.
type EntryView struct {
	entity.CashboxEntry
	CashboxCode  string `json:"cashboxCode"`
	CashboxLabel string `json:"cashboxLabel"`
}

const defaultManualLimit = 200

// ManualEntries lists manual entries newest first.
func (l *Ledger) ManualEntries(ctx context.Context, f ManualFilter) ([]EntryView, error) {
	filter := EntryFilter{
		ReferenceType: entity.RefManual,
		From:          f.From,
		To:            f.To,
		Search:        strings.TrimSpace(f.Search),
		Limit:         f.Limit,
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultManualLimit
	}
	switch f.Kind {
	case "":
		filter.Kinds = []entity.EntryKind{entity.EntryIncome, entity.EntryExpense}
	case entity.EntryIncome, entity.EntryExpense:
		filter.Kinds = []entity.EntryKind{f.Kind}
	default:
		return nil, apperror.NewInvalidRequest("Kind must be income or expense")
	}
	if !f.Cashbox.IsZero() {
		cb, err := l.Find(ctx, f.Cashbox)
		if err != nil {
			if apperror.IsNotFound(err) {
				return []EntryView{}, nil
			}
			return nil, err
		}
		filter.CashboxID = &cb.ID
	}
	return l.entryViews(ctx, filter)
}

// Entries lists all entries of a cashbox in a period, newest first.
func (l *Ledger) Entries(ctx context.Context, sel Selector, from, to *time.Time) (entity.Cashbox, []EntryView, error) {
	cb, err := l.Find(ctx, sel)
	if err != nil {
		return entity.Cashbox{}, nil, err
	}
	views, err := l.entryViews(ctx, EntryFilter{CashboxID: &cb.ID, From: from, To: to})
	if err != nil {
		return entity.Cashbox{}, nil, err
	}
	return cb, views, nil
}

func (l *Ledger) entryViews(ctx context.Context, filter EntryFilter) ([]EntryView, error) {
	entries, err := l.repo.ListEntries(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	boxes, err := l.repo.ListCashboxes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cashboxes: %w", err)
	}
	byID := make(map[id.ID]entity.Cashbox, len(boxes))
	for _, cb := range boxes {
		byID[cb.ID] = cb
	}

	views := make([]EntryView, len(entries))
	for i, e := range entries {
		cb := byID[e.CashboxID]
		views[i] = EntryView{CashboxEntry: e, CashboxCode: cb.Code, CashboxLabel: cb.Label}
	}
	return views, nil
}

// Balance is a cashbox with its derived balance.
type Balance struct {
	entity.Cashbox
	Balance types.Money `json:"balance"`
}

// Balances lists active cashboxes by code with balances derived from the
// ledger.
func (l *Ledger) Balances(ctx context.Context) ([]Balance, error) {
	boxes, err := l.repo.ListCashboxes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cashboxes: %w", err)
	}

	sums, ok := l.cache.GetBalances(ctx)
	if !ok {
		sums, err = l.repo.CashboxBalances(ctx)
		if err != nil {
			return nil, fmt.Errorf("cashbox balances: %w", err)
		}
		l.cache.SetBalances(ctx, sums)
	}

	out := make([]Balance, 0, len(boxes))
	for _, cb := range boxes {
		if !cb.IsActive {
			continue
		}
		out = append(out, Balance{Cashbox: cb, Balance: types.RoundMoney(sums[cb.ID])})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (l *Ledger) occurredAt(at *time.Time) time.Time {
	if at != nil && !at.IsZero() {
		return *at
	}
	return l.now()
}
