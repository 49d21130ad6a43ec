package register_repo

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/domain/cashbox"
	"retailcore/internal/infrastructure/storage/postgres"
)

func TestEntriesQuery_NoFilter(t *testing.T) {
	sql, args, err := entriesQuery(cashbox.EntryFilter{}).ToSql()
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(sql, "FROM cashbox_entries ORDER BY occurred_at DESC, id DESC"), sql)
	assert.Empty(t, args)
}

func TestEntriesQuery_AllFilters(t *testing.T) {
	box := id.ID(2)
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	sql, args, err := entriesQuery(cashbox.EntryFilter{
		CashboxID:     &box,
		Kinds:         []entity.EntryKind{entity.EntryExpense, entity.EntryIncome},
		ReferenceType: entity.RefManual,
		From:          &from,
		To:            &to,
		Search:        "rent",
		Limit:         50,
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "cashbox_id = $1")
	assert.Contains(t, sql, "kind IN ($2,$3)")
	assert.Contains(t, sql, "reference_type = $4")
	assert.Contains(t, sql, "occurred_at >= $5")
	assert.Contains(t, sql, "occurred_at <= $6")
	assert.Contains(t, sql, "note ILIKE $7")
	assert.True(t, strings.HasSuffix(sql, "LIMIT 50"), sql)
	require.Len(t, args, 7)
	assert.Equal(t, "%rent%", args[6])
}

func TestPaymentsOf(t *testing.T) {
	tests := []struct {
		name    string
		kind    entity.PaymentKind
		wantSQL string
	}{
		{name: "sale", kind: entity.PaymentSale, wantSQL: "kind = $1 AND sale_id = $2"},
		{name: "restock", kind: entity.PaymentRestock, wantSQL: "kind = $1 AND restock_id = $2"},
		{name: "other", kind: entity.PaymentOther, wantSQL: "FALSE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, _, err := postgres.Builder().Select("id").From(paymentsTable).Where(paymentsOf(tt.kind, 9)).ToSql()
			require.NoError(t, err)
			assert.Contains(t, sql, tt.wantSQL)
		})
	}
}

func TestBalancesQuery(t *testing.T) {
	sql, _, err := balancesQuery().ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "LEFT JOIN cashbox_entries e ON e.cashbox_id = c.id")
	assert.Contains(t, sql, "CASE WHEN e.direction = 'out' THEN -e.amount ELSE e.amount END")
	assert.True(t, strings.HasSuffix(sql, "GROUP BY c.id"), sql)
}
