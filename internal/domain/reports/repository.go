package reports

import (
	"context"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
)

// Repository defines report data access interface.
type Repository interface {
	// Receipts and movements. Rows come newest first by date, then id.
	ListSaleDocuments(ctx context.Context, filter MovementFilter) ([]DocumentRow, error)
	ListRestockDocuments(ctx context.Context, filter MovementFilter) ([]DocumentRow, error)

	// Supplier debt
	SupplierDebts(ctx context.Context) ([]DebtRow, error)
	GetSupplier(ctx context.Context, supplierID id.ID) (entity.Supplier, error)
	// SupplierRestockBalances returns restocks newest first by COALESCE(date, created_at).
	SupplierRestockBalances(ctx context.Context, supplierID id.ID) ([]RestockBalanceRow, error)
	// SupplierPayments returns restock payments newest first.
	SupplierPayments(ctx context.Context, supplierID id.ID) ([]SupplierPayment, error)
}
