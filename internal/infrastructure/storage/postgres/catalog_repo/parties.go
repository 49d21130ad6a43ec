package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/domain/restocks"
	"retailcore/internal/domain/returns"
	"retailcore/internal/domain/sales"
	"retailcore/internal/infrastructure/storage/postgres"
)

var (
	_ sales.CustomerRepository   = (*PartyRepo)(nil)
	_ restocks.SupplierRepository = (*PartyRepo)(nil)
	_ returns.SupplierReader      = (*PartyRepo)(nil)
)

// PartyRepo stores customers and suppliers.
type PartyRepo struct {
	postgres.Repo
}

// NewPartyRepo creates the counterparty repository.
func NewPartyRepo(txm *postgres.TxManager) *PartyRepo {
	return &PartyRepo{Repo: postgres.NewRepo(txm)}
}

// byName matches case-insensitively and prefers the oldest record.
func byName(cols []string, table, name string) squirrel.SelectBuilder {
	return postgres.Builder().Select(cols...).From(table).
		Where("LOWER(name) = LOWER(?)", name).
		OrderBy("id").
		Limit(1)
}

// --- Customers ---

func (r *PartyRepo) GetCustomer(ctx context.Context, customerID id.ID) (entity.Customer, error) {
	var c entity.Customer
	q := postgres.Builder().Select(customerCols...).From(tableCustomers).Where(squirrel.Eq{"id": customerID})
	err := r.Get(ctx, &c, q, "customer", customerID)
	return c, err
}

func (r *PartyRepo) FindCustomerByName(ctx context.Context, name string) (entity.Customer, bool, error) {
	var c entity.Customer
	found, err := r.Find(ctx, &c, byName(customerCols, tableCustomers, name))
	if err != nil {
		return entity.Customer{}, false, fmt.Errorf("find customer: %w", err)
	}
	return c, found, nil
}

func (r *PartyRepo) CreateCustomer(ctx context.Context, c *entity.Customer) error {
	q := postgres.Builder().Insert(tableCustomers).
		SetMap(postgres.InsertMap(c, generated...)).
		Suffix("RETURNING id, created_at")
	if err := r.QueryRow(ctx, q, &c.ID, &c.CreatedAt); err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

func (r *PartyRepo) UpdateCustomerContact(ctx context.Context, customerID id.ID, contact string) error {
	q := postgres.Builder().Update(tableCustomers).
		Set("contact_info", entity.StrPtr(contact)).
		Where(squirrel.Eq{"id": customerID})
	return r.ExecOne(ctx, q, "customer", customerID)
}

// --- Suppliers ---

func (r *PartyRepo) GetSupplier(ctx context.Context, supplierID id.ID) (entity.Supplier, error) {
	var s entity.Supplier
	q := postgres.Builder().Select(supplierCols...).From(tableSuppliers).Where(squirrel.Eq{"id": supplierID})
	err := r.Get(ctx, &s, q, "supplier", supplierID)
	return s, err
}

func (r *PartyRepo) FindSupplierByName(ctx context.Context, name string) (entity.Supplier, bool, error) {
	var s entity.Supplier
	found, err := r.Find(ctx, &s, byName(supplierCols, tableSuppliers, name))
	if err != nil {
		return entity.Supplier{}, false, fmt.Errorf("find supplier: %w", err)
	}
	return s, found, nil
}

func (r *PartyRepo) CreateSupplier(ctx context.Context, s *entity.Supplier) error {
	q := postgres.Builder().Insert(tableSuppliers).
		SetMap(postgres.InsertMap(s, generated...)).
		Suffix("RETURNING id, created_at")
	if err := r.QueryRow(ctx, q, &s.ID, &s.CreatedAt); err != nil {
		return fmt.Errorf("insert supplier: %w", err)
	}
	return nil
}
