// Package id provides identifier helpers.
// Entities use database-assigned BIGSERIAL ids so that cashbox selectors and
// receipt references stay numeric; UUIDv7 is used only for generated tokens.
package id

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ID is the identifier type of every persisted entity.
type ID = int64

// Parse converts a decimal string to a positive ID.
func Parse(s string) (ID, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse id %q: %w", s, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("id must be positive, got %d", v)
	}
	return v, nil
}

// Valid reports whether v is a usable entity id.
func Valid(v ID) bool {
	return v > 0
}

// Ptr returns a pointer to v, or nil when v is not valid.
func Ptr(v ID) *ID {
	if !Valid(v) {
		return nil
	}
	return &v
}

// Token returns a time-ordered random token (UUIDv7 without dashes).
func Token() string {
	u, err := uuid.NewV7()
	if err != nil {
		u = uuid.New()
	}
	return strings.ReplaceAll(u.String(), "-", "")
}

// PlaceholderBarcode builds a barcode for an inventory unit that arrived
// without a supplier serial.
func PlaceholderBarcode(itemID ID) string {
	return fmt.Sprintf("PH-%d-%s", itemID, Token())
}
