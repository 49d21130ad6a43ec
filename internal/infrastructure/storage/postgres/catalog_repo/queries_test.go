package catalog_repo

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
)

func TestClaimUnitsQuery(t *testing.T) {
	sql, args, err := claimUnitsQuery(7, 2, []id.ID{3, 4}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM inventory_units WHERE")
	assert.Contains(t, sql, "item_id = $1")
	assert.Contains(t, sql, "status = $2")
	assert.Contains(t, sql, "id NOT IN ($3,$4)")
	assert.Contains(t, sql, "ORDER BY created_at, id LIMIT 2 FOR UPDATE SKIP LOCKED")
	assert.Equal(t, []any{int64(7), entity.UnitAvailable, int64(3), int64(4)}, args)
}

func TestClaimUnitsQuery_NoExclusions(t *testing.T) {
	sql, args, err := claimUnitsQuery(7, 1, nil).ToSql()
	require.NoError(t, err)

	assert.NotContains(t, sql, "NOT IN")
	assert.Len(t, args, 2)
}

func TestRollForCutQuery(t *testing.T) {
	sql, args, err := rollForCutQuery(5, decimal.RequireFromString("2.5"), []id.ID{9}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM rolls WHERE item_id = $1 AND remaining_m >= $2 AND id NOT IN ($3)")
	assert.True(t, strings.HasSuffix(sql, "LIMIT 1 FOR UPDATE"), sql)
	assert.NotContains(t, sql, "SKIP LOCKED")
	require.Len(t, args, 3)
	assert.Equal(t, "2.5", args[1].(decimal.Decimal).String())
}

func TestByName(t *testing.T) {
	sql, args, err := byName(supplierCols, tableSuppliers, "Acme").ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id, name, phone, email, address, created_at FROM suppliers WHERE LOWER(name) = LOWER($1) ORDER BY id LIMIT 1",
		sql)
	assert.Equal(t, []any{"Acme"}, args)
}
