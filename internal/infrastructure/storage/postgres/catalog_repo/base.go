// Package catalog_repo provides PostgreSQL repositories for the reference
// data that documents point at: items with their rolls and inventory units,
// customers and suppliers.
package catalog_repo

import (
	"retailcore/internal/core/entity"
	"retailcore/internal/infrastructure/storage/postgres"
)

const (
	tableItems     = "items"
	tableRolls     = "rolls"
	tableUnits     = "inventory_units"
	tableReturns   = "inventory_returns"
	tableCustomers = "customers"
	tableSuppliers = "suppliers"
)

// Column lists are derived once from the entity db tags.
var (
	itemCols     = postgres.ExtractDBColumns[entity.Item]()
	rollCols     = postgres.ExtractDBColumns[entity.Roll]()
	unitCols     = postgres.ExtractDBColumns[entity.InventoryUnit]()
	returnCols   = postgres.ExtractDBColumns[entity.InventoryReturn]()
	customerCols = postgres.ExtractDBColumns[entity.Customer]()
	supplierCols = postgres.ExtractDBColumns[entity.Supplier]()
)

// generated are filled by the database on insert.
var generated = []string{"id", "created_at"}
