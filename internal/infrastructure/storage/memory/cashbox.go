package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
	"retailcore/internal/domain/cashbox"
)

var _ cashbox.Repository = (*Store)(nil)

func (s *Store) GetCashbox(ctx context.Context, cashboxID id.ID) (entity.Cashbox, error) {
	defer s.lock(ctx)()
	cb, ok := s.st.cashboxes[cashboxID]
	if !ok {
		return entity.Cashbox{}, apperror.NewNotFound("cashbox", cashboxID)
	}
	return cb, nil
}

func (s *Store) GetCashboxByCode(ctx context.Context, code string) (entity.Cashbox, error) {
	defer s.lock(ctx)()
	for _, cb := range s.st.cashboxes {
		if strings.EqualFold(cb.Code, code) {
			return cb, nil
		}
	}
	return entity.Cashbox{}, apperror.NewNotFound("cashbox", code)
}

func (s *Store) ListCashboxes(ctx context.Context) ([]entity.Cashbox, error) {
	defer s.lock(ctx)()
	return sortedValues(s.st.cashboxes, nil, func(a, b entity.Cashbox) bool { return a.Code < b.Code }), nil
}

// CreateCashbox inserts a cashbox; codes are unique.
func (s *Store) CreateCashbox(ctx context.Context, cb *entity.Cashbox) error {
	defer s.lock(ctx)()
	cb.Code = strings.ToUpper(strings.TrimSpace(cb.Code))
	for _, existing := range s.st.cashboxes {
		if existing.Code == cb.Code {
			return fmt.Errorf("duplicate cashbox code %q", cb.Code)
		}
	}
	cb.ID = s.nextID()
	s.st.cashboxes[cb.ID] = *cb
	return nil
}

func (s *Store) CashboxBalances(ctx context.Context) (map[id.ID]types.Money, error) {
	defer s.lock(ctx)()
	out := make(map[id.ID]types.Money, len(s.st.cashboxes))
	for cbID := range s.st.cashboxes {
		out[cbID] = types.Zero()
	}
	for _, e := range s.st.entries {
		out[e.CashboxID] = out[e.CashboxID].Add(e.Signed())
	}
	return out, nil
}

func (s *Store) CreatePayment(ctx context.Context, p *entity.Payment) error {
	defer s.lock(ctx)()
	p.ID = s.nextID()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	s.st.payments[p.ID] = *p
	return nil
}

func paymentOf(p entity.Payment, kind entity.PaymentKind, docID id.ID) bool {
	if p.Kind != kind {
		return false
	}
	switch kind {
	case entity.PaymentSale:
		return p.SaleID != nil && *p.SaleID == docID
	case entity.PaymentRestock:
		return p.RestockID != nil && *p.RestockID == docID
	}
	return false
}

func (s *Store) ListPayments(ctx context.Context, kind entity.PaymentKind, docID id.ID) ([]entity.Payment, error) {
	defer s.lock(ctx)()
	return sortedValues(s.st.payments,
		func(p entity.Payment) bool { return paymentOf(p, kind, docID) },
		func(a, b entity.Payment) bool { return olderFirst(a.CreatedAt, a.ID, b.CreatedAt, b.ID) },
	), nil
}

func (s *Store) SumPayments(ctx context.Context, kind entity.PaymentKind, docID id.ID) (types.Money, error) {
	defer s.lock(ctx)()
	sum := types.Zero()
	for _, p := range s.st.payments {
		if paymentOf(p, kind, docID) {
			sum = sum.Add(p.Amount)
		}
	}
	return sum, nil
}

func (s *Store) AppendEntry(ctx context.Context, e *entity.CashboxEntry) error {
	defer s.lock(ctx)()
	if _, ok := s.st.cashboxes[e.CashboxID]; !ok {
		return fmt.Errorf("cashbox %d does not exist", e.CashboxID)
	}
	e.ID = s.nextID()
	e.CreatedAt = s.now()
	if e.OccurredAt.IsZero() {
		e.OccurredAt = e.CreatedAt
	}
	s.st.entries[e.ID] = *e
	return nil
}

func (s *Store) ListEntries(ctx context.Context, f cashbox.EntryFilter) ([]entity.CashboxEntry, error) {
	defer s.lock(ctx)()
	search := strings.ToLower(f.Search)
	out := sortedValues(s.st.entries,
		func(e entity.CashboxEntry) bool {
			switch {
			case f.CashboxID != nil && e.CashboxID != *f.CashboxID:
				return false
			case len(f.Kinds) > 0 && !slices.Contains(f.Kinds, e.Kind):
				return false
			case f.ReferenceType != "" && entity.StrVal(e.ReferenceType) != f.ReferenceType:
				return false
			case f.From != nil && e.OccurredAt.Before(*f.From):
				return false
			case f.To != nil && e.OccurredAt.After(*f.To):
				return false
			case search != "" && !strings.Contains(strings.ToLower(entity.StrVal(e.Note)), search):
				return false
			}
			return true
		},
		func(a, b entity.CashboxEntry) bool { return olderFirst(b.OccurredAt, b.ID, a.OccurredAt, a.ID) },
	)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}
