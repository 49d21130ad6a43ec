package dto

import (
	"strings"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/domain/reports"
)

// ReceiptQuery filters the combined receipt list.
type ReceiptQuery struct {
	Mode  string `form:"mode" binding:"omitempty,oneof=IN OUT in out"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=1000"`
	DateRange
}

// ToFilter converts the query to a domain filter.
func (q *ReceiptQuery) ToFilter() (reports.ReceiptFilter, error) {
	from, to, err := q.Parse()
	if err != nil {
		return reports.ReceiptFilter{}, err
	}
	return reports.ReceiptFilter{
		Mode:     reports.Mode(strings.ToUpper(q.Mode)),
		FromDate: from,
		ToDate:   to,
		Limit:    q.Limit,
	}, nil
}

// MovementQuery filters sale or restock movements. customerId applies to
// sales, supplierId to restocks.
type MovementQuery struct {
	CustomerID  string `form:"customerId"`
	SupplierID  string `form:"supplierId"`
	Status      string `form:"status" binding:"omitempty,oneof=PAID PARTIAL UNPAID paid partial unpaid"`
	CashboxCode string `form:"cashboxCode"`
	Search      string `form:"search"`
	Limit       int    `form:"limit" binding:"omitempty,min=1,max=1000"`
	DateRange
}

// ToFilter converts the query to a domain filter. A numeric search also
// matches the document id.
func (q *MovementQuery) ToFilter() (reports.MovementFilter, error) {
	from, to, err := q.Parse()
	if err != nil {
		return reports.MovementFilter{}, err
	}
	f := reports.MovementFilter{
		Status:      entity.ReceiptStatus(strings.ToUpper(q.Status)),
		CashboxCode: strings.ToUpper(strings.TrimSpace(q.CashboxCode)),
		FromDate:    from,
		ToDate:      to,
		Search:      strings.TrimSpace(q.Search),
		Limit:       q.Limit,
	}

	party := q.CustomerID
	if party == "" {
		party = q.SupplierID
	}
	if party != "" {
		v, err := id.Parse(party)
		if err != nil {
			return reports.MovementFilter{}, apperror.NewInvalidRequest("Invalid party id %q", party)
		}
		f.PartyID = &v
	}
	if v, err := id.Parse(f.Search); err == nil {
		f.SearchID = &v
	}
	return f, nil
}
