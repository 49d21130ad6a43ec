package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/types"
)

func TestExtractDBColumns_EmbeddedStatusColumns(t *testing.T) {
	cols := ExtractDBColumns[entity.Sale]()

	for _, expected := range []string{
		"id", "number", "user_id", "customer_id", "total", "status",
		"status_manual_enabled", "status_manual_value", "status_manual_note", "status_manual_set_at",
		"last_edit_note", "created_at",
	} {
		assert.Contains(t, cols, expected)
	}
}

func TestExtractDBColumns_SkipsUnmapped(t *testing.T) {
	cols := ExtractDBColumns[entity.SaleLine]()
	assert.NotContains(t, cols, "-")
	assert.Contains(t, cols, "roll_id")
	assert.Len(t, cols, 10)
}

func TestInsertMap(t *testing.T) {
	cost := types.MustMoney("0.33")
	roll := entity.Roll{
		ID:           7,
		ItemID:       3,
		LengthM:      types.MustLength("100"),
		RemainingM:   types.MustLength("100"),
		CostPerMeter: &cost,
		CreatedAt:    time.Now(),
	}

	m := InsertMap(roll, "id", "created_at")

	assert.NotContains(t, m, "id")
	assert.NotContains(t, m, "created_at")
	assert.Equal(t, int64(3), m["item_id"])
	assert.Equal(t, &cost, m["cost_per_meter"])
	assert.Len(t, m, 4)
}

func TestStructToMap_Flattens(t *testing.T) {
	var r entity.Restock
	r.SetOverride(entity.Manual(entity.StatusPaid, "prepaid", time.Unix(0, 0)))

	m := StructToMap(&r)

	assert.Equal(t, true, m["status_manual_enabled"])
	assert.Equal(t, "prepaid", *(m["status_manual_note"].(*string)))
}
