// Package entity holds the persisted records of the retail back-office:
// inventory (items, rolls, units), documents (sales, restocks), the cash
// ledger (payments, cashboxes, entries), returns and counterparties.
package entity

import (
	"context"

	"retailcore/internal/core/id"
)

// Validatable is implemented by requests that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// Actor is the caller on whose behalf a settlement operation runs.
// It is passed explicitly to every entry point.
type Actor struct {
	ID    id.ID
	Roles []string
	// Privileged callers may record an operation under another user id.
	Privileged bool
}

// ResolveUser picks the user recorded on a document: the requested id when
// the actor is privileged, otherwise the actor itself. Returns 0 when
// neither is usable.
func (a Actor) ResolveUser(requested id.ID) id.ID {
	if a.Privileged && id.Valid(requested) {
		return requested
	}
	if id.Valid(a.ID) {
		return a.ID
	}
	return 0
}

// LineMode tells whether a line is counted in pieces or cut by length.
type LineMode string

const (
	ModeEach  LineMode = "EACH"
	ModeMeter LineMode = "METER"
)

// Valid reports whether m is a known mode.
func (m LineMode) Valid() bool {
	return m == ModeEach || m == ModeMeter
}

// StrPtr returns nil for an empty string, a pointer otherwise.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StrVal dereferences s, returning "" for nil.
func StrVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
