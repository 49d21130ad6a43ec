package receipt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/types"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name  string
		paid  string
		total string
		want  entity.ReceiptStatus
	}{
		{"nothing paid", "0", "100.00", entity.StatusUnpaid},
		{"negative paid", "-5", "100.00", entity.StatusUnpaid},
		{"partial", "40.00", "100.00", entity.StatusPartial},
		{"exact", "100.00", "100.00", entity.StatusPaid},
		{"overpaid", "120", "100.00", entity.StatusPaid},
		{"rounding closes the gap", "99.995", "100.00", entity.StatusPaid},
		{"sub-cent payment rounds to zero", "0.004", "10", entity.StatusUnpaid},
		{"zero total", "0", "0", entity.StatusPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(types.MustMoney(tt.paid), types.MustMoney(tt.total))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_ManualOverrideWins(t *testing.T) {
	paid := types.MustMoney("40.00")
	total := types.MustMoney("100.00")

	assert.Equal(t, entity.StatusPartial, Resolve(paid, total, entity.Computed()))

	manual := entity.Manual(entity.StatusPaid, "settled in cash off-book", time.Now())
	assert.Equal(t, entity.StatusPaid, Resolve(paid, total, manual))

	// Clearing the override goes back to the computed value.
	assert.Equal(t, entity.StatusPartial, Resolve(paid, total, entity.Computed()))
}

func TestResolve_InvalidManualValueIgnored(t *testing.T) {
	o := entity.Manual(entity.ReceiptStatus("REFUNDED"), "", time.Now())
	assert.Equal(t, entity.StatusUnpaid, Resolve(types.Zero(), types.MustMoney("5"), o))
}

func TestStatusColumnsRoundTrip(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	var cols entity.StatusColumns

	cols.SetOverride(entity.Manual(entity.StatusUnpaid, "disputed", at))
	m, ok := cols.Override().Manual()
	assert.True(t, ok)
	assert.Equal(t, entity.StatusUnpaid, m.Value)
	assert.Equal(t, "disputed", m.Note)
	assert.Equal(t, at, m.SetAt)

	cols.SetOverride(entity.Computed())
	assert.False(t, cols.Override().IsManual())
	assert.Nil(t, cols.ManualValue)
}

func TestLabelAndParse(t *testing.T) {
	assert.Equal(t, "partial", Label(entity.StatusPartial))

	s, ok := ParseStatus(" paid ")
	assert.True(t, ok)
	assert.Equal(t, entity.StatusPaid, s)

	_, ok = ParseStatus("done")
	assert.False(t, ok)
}
