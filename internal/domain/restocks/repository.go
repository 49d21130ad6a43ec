// Package restocks is the settlement engine for purchases from suppliers.
package restocks

import (
	"context"
	"time"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
)

// Repository defines storage for restock headers and lines.
type Repository interface {
	CreateRestock(ctx context.Context, r *entity.Restock) error
	GetRestock(ctx context.Context, restockID id.ID) (entity.Restock, error)
	GetRestockForUpdate(ctx context.Context, restockID id.ID) (entity.Restock, error)
	// UpdateRestockStatus writes status and override columns.
	UpdateRestockStatus(ctx context.Context, r *entity.Restock) error

	// CreateRestockLine inserts a line and, for METER lines, the link to the
	// roll it created.
	CreateRestockLine(ctx context.Context, line *entity.RestockLine) error
	ListRestockLines(ctx context.Context, restockID id.ID) ([]entity.RestockLine, error)
}

// SupplierRepository defines supplier lookups.
type SupplierRepository interface {
	GetSupplier(ctx context.Context, supplierID id.ID) (entity.Supplier, error)
	// FindSupplierByName matches the name case-insensitively.
	FindSupplierByName(ctx context.Context, name string) (entity.Supplier, bool, error)
	CreateSupplier(ctx context.Context, s *entity.Supplier) error
}

// Numerator issues human-readable document numbers.
type Numerator interface {
	Next(ctx context.Context, prefix string, at time.Time) (string, error)
}
