// Package document_repo provides PostgreSQL repositories for documents:
// sales with their lines, restocks with their lines and inventory returns.
package document_repo

import (
	"retailcore/internal/core/entity"
	"retailcore/internal/infrastructure/storage/postgres"
)

const (
	tableSales          = "sales"
	tableSaleLines      = "sale_lines"
	tableSaleLineUnits  = "sale_line_units"
	tableRestocks       = "restocks"
	tableRestockLines   = "restock_lines"
	tableRestockRolls   = "restock_rolls"
	tableReturns        = "inventory_returns"
	statusManualEnabled = "status_manual_enabled"
)

var (
	saleCols        = postgres.ExtractDBColumns[entity.Sale]()
	saleLineCols    = postgres.ExtractDBColumns[entity.SaleLine]()
	restockCols     = postgres.ExtractDBColumns[entity.Restock]()
	restockLineCols = postgres.ExtractDBColumns[entity.RestockLine]()
	returnCols      = postgres.ExtractDBColumns[entity.InventoryReturn]()
)

// qualify prefixes every column with a table alias.
func qualify(alias string, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = alias + "." + c
	}
	return out
}

// statusSet is the SET clause shared by the status-only updates.
func statusSet(status entity.ReceiptStatus, c entity.StatusColumns) map[string]any {
	return map[string]any{
		"status":               status,
		statusManualEnabled:    c.ManualEnabled,
		"status_manual_value":  c.ManualValue,
		"status_manual_note":   c.ManualNote,
		"status_manual_set_at": c.ManualSetAt,
	}
}
