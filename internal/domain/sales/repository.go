// Package sales is the settlement engine for sales: it prices lines,
// allocates inventory, records payments and derives receipt status inside
// one transaction.
package sales

import (
	"context"
	"time"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
)

// Repository defines storage for sale headers and lines.
type Repository interface {
	CreateSale(ctx context.Context, sale *entity.Sale) error
	GetSale(ctx context.Context, saleID id.ID) (entity.Sale, error)
	// GetSaleForUpdate reads the header with a row lock.
	GetSaleForUpdate(ctx context.Context, saleID id.ID) (entity.Sale, error)
	// UpdateSale rewrites the header: customer, totals, notes, status,
	// override and edit audit fields.
	UpdateSale(ctx context.Context, sale *entity.Sale) error
	// UpdateSaleStatus writes only status and override columns.
	UpdateSaleStatus(ctx context.Context, sale *entity.Sale) error

	// CreateSaleLine inserts a line and links its UnitIDs.
	CreateSaleLine(ctx context.Context, line *entity.SaleLine) error
	// ListSaleLines returns lines by position with their UnitIDs.
	ListSaleLines(ctx context.Context, saleID id.ID) ([]entity.SaleLine, error)
	ListSaleLinesForUpdate(ctx context.Context, saleID id.ID) ([]entity.SaleLine, error)
	// DeleteSaleLines removes all lines and unit links of a sale.
	DeleteSaleLines(ctx context.Context, saleID id.ID) error
}

// CustomerRepository defines the customer lookups used while settling.
type CustomerRepository interface {
	GetCustomer(ctx context.Context, customerID id.ID) (entity.Customer, error)
	// FindCustomerByName matches the name case-insensitively.
	FindCustomerByName(ctx context.Context, name string) (entity.Customer, bool, error)
	CreateCustomer(ctx context.Context, c *entity.Customer) error
	UpdateCustomerContact(ctx context.Context, customerID id.ID, contact string) error
}

// Numerator issues human-readable document numbers.
type Numerator interface {
	Next(ctx context.Context, prefix string, at time.Time) (string, error)
}

// Auditor stores snapshots of documents before they change.
type Auditor interface {
	Record(ctx context.Context, entityType string, entityID id.ID, action string, userID id.ID, snapshot any) error
}

// PhoneNormalizer canonicalizes phone numbers before they are compared.
type PhoneNormalizer interface {
	Normalize(raw string) string
}
