package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/types"
)

func money(s string) *types.Money {
	m := types.MustMoney(s)
	return &m
}

func TestResolve(t *testing.T) {
	full := entity.Item{PriceRetail: money("12.50"), PriceWholesale: money("10.00"), Price: money("11")}

	tests := []struct {
		name     string
		item     entity.Item
		tier     Tier
		explicit *types.Money
		want     string
	}{
		{"explicit wins", full, TierWholesale, money("9.999"), "10.00"},
		{"explicit zero is honored", full, TierRetail, money("0"), "0"},
		{"negative explicit ignored", full, TierRetail, money("-1"), "12.50"},
		{"retail tier", full, TierRetail, nil, "12.50"},
		{"wholesale tier", full, TierWholesale, nil, "10.00"},
		{"wholesale falls back to retail", entity.Item{PriceRetail: money("7")}, TierWholesale, nil, "7"},
		{"retail falls back to wholesale", entity.Item{PriceWholesale: money("6")}, TierRetail, nil, "6"},
		{"legacy price", entity.Item{Price: money("3.333")}, TierRetail, nil, "3.33"},
		{"nothing priced", entity.Item{}, TierWholesale, nil, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.item, tt.tier, tt.explicit)
			assert.True(t, types.MustMoney(tt.want).Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestParseTier(t *testing.T) {
	assert.Equal(t, TierWholesale, ParseTier("Wholesale"))
	assert.Equal(t, TierRetail, ParseTier(""))
	assert.Equal(t, TierRetail, ParseTier("vip"))
}
