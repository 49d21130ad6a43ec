package dto

import (
	"strings"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/types"
	"retailcore/internal/domain/cashbox"
)

// ManualEntryRequest records an income or expense outside any document.
type ManualEntryRequest struct {
	Kind       string      `json:"kind" binding:"required,oneof=income expense"`
	Amount     types.Money `json:"amount" binding:"required,money"`
	Note       string      `json:"note,omitempty"`
	OccurredAt string      `json:"occurredAt,omitempty"`
	CashboxRef
}

// ToInput converts the request to a domain request.
func (r *ManualEntryRequest) ToInput() (cashbox.ManualEntryRequest, error) {
	sel, err := r.Selector()
	if err != nil {
		return cashbox.ManualEntryRequest{}, err
	}
	at, err := ParseDate(r.OccurredAt)
	if err != nil {
		return cashbox.ManualEntryRequest{}, err
	}
	return cashbox.ManualEntryRequest{
		Kind:       entity.EntryKind(r.Kind),
		Amount:     r.Amount,
		Cashbox:    sel,
		Note:       strings.TrimSpace(r.Note),
		OccurredAt: at,
	}, nil
}

// ManualEntryQuery filters manual entries.
type ManualEntryQuery struct {
	Kind   string `form:"kind" binding:"omitempty,oneof=income expense"`
	Search string `form:"search"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=1000"`
	CashboxQuery
	DateRange
}

// ToFilter converts the query to a domain filter.
func (q *ManualEntryQuery) ToFilter() (cashbox.ManualFilter, error) {
	sel, err := q.Selector()
	if err != nil {
		return cashbox.ManualFilter{}, err
	}
	from, to, err := q.Parse()
	if err != nil {
		return cashbox.ManualFilter{}, err
	}
	return cashbox.ManualFilter{
		Kind:    entity.EntryKind(q.Kind),
		Cashbox: sel,
		From:    from,
		To:      to,
		Search:  strings.TrimSpace(q.Search),
		Limit:   q.Limit,
	}, nil
}

// LedgerQuery selects the period of a ledger listing or export.
type LedgerQuery struct {
	DateRange
}
