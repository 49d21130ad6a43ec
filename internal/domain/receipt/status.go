// Package receipt derives the PAID/PARTIAL/UNPAID status of sales and restocks.
//
// Status is a projection of ledger truth (sum of payments) plus an optional
// manual override; callers re-run Resolve after every ledger mutation that
// touches a document and persist the result when it changed.
package receipt

import (
	"strings"
	"time"

	"retailcore/internal/core/apperror"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/types"
)

// Compute maps paid vs total to a status. Both amounts are rounded to cents
// before comparison.
func Compute(paid, total types.Money) entity.ReceiptStatus {
	paid = types.RoundMoney(paid)
	total = types.RoundMoney(total)

	switch {
	case paid.GreaterThanOrEqual(total):
		return entity.StatusPaid
	case paid.IsPositive():
		return entity.StatusPartial
	default:
		return entity.StatusUnpaid
	}
}

// Resolve returns the manual value when an override is in effect, the
// computed status otherwise.
func Resolve(paid, total types.Money, override entity.StatusOverride) entity.ReceiptStatus {
	if m, ok := override.Manual(); ok && m.Value.Valid() {
		return m.Value
	}
	return Compute(paid, total)
}

// Outstanding is total minus paid, rounded.
func Outstanding(paid, total types.Money) types.Money {
	return types.RoundMoney(total.Sub(paid))
}

// Label is the lowercase form returned alongside statusCode.
func Label(s entity.ReceiptStatus) string {
	return strings.ToLower(string(s))
}

// ParseStatus accepts a status code in any letter case.
func ParseStatus(s string) (entity.ReceiptStatus, bool) {
	st := entity.ReceiptStatus(strings.ToUpper(strings.TrimSpace(s)))
	return st, st.Valid()
}

// OverrideInput pins the status of a document by hand.
type OverrideInput struct {
	Status entity.ReceiptStatus
	Note   string
}

// ApplyOverride turns a requested override into the value to store. A nil
// request clears the override. Repeating the current value and note keeps
// the original timestamp.
func ApplyOverride(in *OverrideInput, current entity.StatusOverride, now time.Time) (entity.StatusOverride, error) {
	if in == nil {
		return entity.Computed(), nil
	}
	if !in.Status.Valid() {
		return entity.StatusOverride{}, apperror.NewInvalidRequest("Unknown status %q", in.Status)
	}
	note := strings.TrimSpace(in.Note)
	if m, ok := current.Manual(); ok && m.Value == in.Status && m.Note == note {
		return current, nil
	}
	return entity.Manual(in.Status, note, now), nil
}
