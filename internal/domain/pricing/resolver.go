// Package pricing picks the unit price charged on a sale line.
package pricing

import (
	"strings"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/types"
)

// Tier selects which of an item's price lists applies.
type Tier string

const (
	TierRetail    Tier = "retail"
	TierWholesale Tier = "wholesale"
)

// ParseTier normalizes a tier name; unknown or empty input means retail.
func ParseTier(s string) Tier {
	if strings.EqualFold(strings.TrimSpace(s), string(TierWholesale)) {
		return TierWholesale
	}
	return TierRetail
}

// Resolve returns the unit price for item.
// An explicit non-negative price wins. Otherwise the chosen tier's price is
// used, falling back to the other tier, then the legacy single price, then 0.
// The result is rounded to cents.
func Resolve(item entity.Item, tier Tier, explicit *types.Money) types.Money {
	if explicit != nil && !explicit.IsNegative() {
		return types.RoundMoney(*explicit)
	}

	first, second := item.PriceRetail, item.PriceWholesale
	if tier == TierWholesale {
		first, second = second, first
	}

	for _, p := range []*types.Money{first, second, item.Price} {
		if p != nil {
			return types.RoundMoney(*p)
		}
	}
	return types.Zero()
}
