// Package cashbox keeps the append-only cash ledger: payments, the entries
// they produce, manual income/expense entries and derived balances.
package cashbox

import (
	"regexp"
	"strconv"
	"strings"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
)

var codePattern = regexp.MustCompile(`^[A-Za-z]{1,3}$`)

// Selector names a cashbox either by id or by code. The zero value selects
// nothing.
type Selector struct {
	ID   id.ID
	Code string
}

// ByID selects a cashbox by id.
func ByID(v id.ID) Selector {
	return Selector{ID: v}
}

// ByCode selects a cashbox by code; codes are matched upper-cased.
func ByCode(code string) Selector {
	return Selector{Code: strings.ToUpper(strings.TrimSpace(code))}
}

// IsZero reports whether the selector names no cashbox.
func (s Selector) IsZero() bool {
	return !id.Valid(s.ID) && s.Code == ""
}

func (s Selector) String() string {
	if id.Valid(s.ID) {
		return strconv.FormatInt(s.ID, 10)
	}
	return s.Code
}

// ParseSelector reads a free-form cashbox reference: a positive number is
// an id, one to three letters are a code. Blank input yields the zero
// selector.
func ParseSelector(raw string) (Selector, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Selector{}, nil
	}
	if v, err := id.Parse(raw); err == nil {
		return ByID(v), nil
	}
	if codePattern.MatchString(raw) {
		return ByCode(raw), nil
	}
	return Selector{}, apperror.NewInvalidRequest("Invalid cashbox reference %q", raw)
}
