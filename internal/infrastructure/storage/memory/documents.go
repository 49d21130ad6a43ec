package memory

import (
	"context"
	"slices"
	"strings"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/domain/restocks"
	"retailcore/internal/domain/sales"
	"retailcore/internal/domain/suppliers"
)

var (
	_ sales.Repository             = (*Store)(nil)
	_ sales.CustomerRepository     = (*Store)(nil)
	_ sales.Numerator              = (*Store)(nil)
	_ sales.Auditor                = (*Store)(nil)
	_ restocks.Repository          = (*Store)(nil)
	_ restocks.SupplierRepository  = (*Store)(nil)
	_ suppliers.Repository         = (*Store)(nil)
)

// --- Sales ---

func (s *Store) CreateSale(ctx context.Context, sale *entity.Sale) error {
	defer s.lock(ctx)()
	sale.ID = s.nextID()
	sale.CreatedAt = s.now()
	s.st.sales[sale.ID] = *sale
	return nil
}

func (s *Store) GetSale(ctx context.Context, saleID id.ID) (entity.Sale, error) {
	defer s.lock(ctx)()
	sale, ok := s.st.sales[saleID]
	if !ok {
		return entity.Sale{}, apperror.NewNotFound("sale", saleID)
	}
	return sale, nil
}

func (s *Store) GetSaleForUpdate(ctx context.Context, saleID id.ID) (entity.Sale, error) {
	return s.GetSale(ctx, saleID)
}

func (s *Store) UpdateSale(ctx context.Context, sale *entity.Sale) error {
	defer s.lock(ctx)()
	cur, ok := s.st.sales[sale.ID]
	if !ok {
		return apperror.NewNotFound("sale", sale.ID)
	}
	next := *sale
	next.Number = cur.Number
	next.CreatedAt = cur.CreatedAt
	s.st.sales[sale.ID] = next
	return nil
}

func (s *Store) UpdateSaleStatus(ctx context.Context, sale *entity.Sale) error {
	defer s.lock(ctx)()
	cur, ok := s.st.sales[sale.ID]
	if !ok {
		return apperror.NewNotFound("sale", sale.ID)
	}
	cur.Status = sale.Status
	cur.StatusColumns = sale.StatusColumns
	s.st.sales[sale.ID] = cur
	return nil
}

func (s *Store) CreateSaleLine(ctx context.Context, line *entity.SaleLine) error {
	defer s.lock(ctx)()
	if _, ok := s.st.sales[line.SaleID]; !ok {
		return apperror.NewNotFound("sale", line.SaleID)
	}
	line.ID = s.nextID()
	stored := *line
	stored.UnitIDs = slices.Clone(line.UnitIDs)
	s.st.saleLines[line.ID] = stored
	return nil
}

func (s *Store) ListSaleLines(ctx context.Context, saleID id.ID) ([]entity.SaleLine, error) {
	defer s.lock(ctx)()
	lines := sortedValues(s.st.saleLines,
		func(l entity.SaleLine) bool { return l.SaleID == saleID },
		func(a, b entity.SaleLine) bool {
			if a.Position != b.Position {
				return a.Position < b.Position
			}
			return a.ID < b.ID
		},
	)
	for i := range lines {
		lines[i].UnitIDs = slices.Clone(lines[i].UnitIDs)
	}
	return lines, nil
}

func (s *Store) ListSaleLinesForUpdate(ctx context.Context, saleID id.ID) ([]entity.SaleLine, error) {
	return s.ListSaleLines(ctx, saleID)
}

func (s *Store) DeleteSaleLines(ctx context.Context, saleID id.ID) error {
	defer s.lock(ctx)()
	for lineID, l := range s.st.saleLines {
		if l.SaleID == saleID {
			delete(s.st.saleLines, lineID)
		}
	}
	return nil
}

// --- Customers ---

func (s *Store) GetCustomer(ctx context.Context, customerID id.ID) (entity.Customer, error) {
	defer s.lock(ctx)()
	c, ok := s.st.customers[customerID]
	if !ok {
		return entity.Customer{}, apperror.NewNotFound("customer", customerID)
	}
	return c, nil
}

func (s *Store) FindCustomerByName(ctx context.Context, name string) (entity.Customer, bool, error) {
	defer s.lock(ctx)()
	matches := sortedValues(s.st.customers,
		func(c entity.Customer) bool { return strings.EqualFold(c.Name, name) },
		func(a, b entity.Customer) bool { return a.ID < b.ID },
	)
	if len(matches) == 0 {
		return entity.Customer{}, false, nil
	}
	return matches[0], true, nil
}

func (s *Store) CreateCustomer(ctx context.Context, c *entity.Customer) error {
	defer s.lock(ctx)()
	c.ID = s.nextID()
	c.CreatedAt = s.now()
	s.st.customers[c.ID] = *c
	return nil
}

func (s *Store) UpdateCustomerContact(ctx context.Context, customerID id.ID, contact string) error {
	defer s.lock(ctx)()
	c, ok := s.st.customers[customerID]
	if !ok {
		return apperror.NewNotFound("customer", customerID)
	}
	c.ContactInfo = entity.StrPtr(contact)
	s.st.customers[customerID] = c
	return nil
}

// --- Restocks ---

func (s *Store) CreateRestock(ctx context.Context, r *entity.Restock) error {
	defer s.lock(ctx)()
	r.ID = s.nextID()
	r.CreatedAt = s.now()
	s.st.restocks[r.ID] = *r
	return nil
}

func (s *Store) GetRestock(ctx context.Context, restockID id.ID) (entity.Restock, error) {
	defer s.lock(ctx)()
	r, ok := s.st.restocks[restockID]
	if !ok {
		return entity.Restock{}, apperror.NewNotFound("restock", restockID)
	}
	return r, nil
}

func (s *Store) GetRestockForUpdate(ctx context.Context, restockID id.ID) (entity.Restock, error) {
	return s.GetRestock(ctx, restockID)
}

func (s *Store) UpdateRestockStatus(ctx context.Context, r *entity.Restock) error {
	defer s.lock(ctx)()
	cur, ok := s.st.restocks[r.ID]
	if !ok {
		return apperror.NewNotFound("restock", r.ID)
	}
	cur.Status = r.Status
	cur.StatusColumns = r.StatusColumns
	s.st.restocks[r.ID] = cur
	return nil
}

func (s *Store) CreateRestockLine(ctx context.Context, line *entity.RestockLine) error {
	defer s.lock(ctx)()
	if _, ok := s.st.restocks[line.RestockID]; !ok {
		return apperror.NewNotFound("restock", line.RestockID)
	}
	line.ID = s.nextID()
	s.st.restockLines[line.ID] = *line
	return nil
}

func (s *Store) ListRestockLines(ctx context.Context, restockID id.ID) ([]entity.RestockLine, error) {
	defer s.lock(ctx)()
	return sortedValues(s.st.restockLines,
		func(l entity.RestockLine) bool { return l.RestockID == restockID },
		func(a, b entity.RestockLine) bool { return a.ID < b.ID },
	), nil
}

// ListSupplierRestocksForUpdate returns the supplier's restocks oldest first.
func (s *Store) ListSupplierRestocksForUpdate(ctx context.Context, supplierID id.ID) ([]entity.Restock, error) {
	defer s.lock(ctx)()
	return sortedValues(s.st.restocks,
		func(r entity.Restock) bool { return r.SupplierID != nil && *r.SupplierID == supplierID },
		func(a, b entity.Restock) bool { return olderFirst(a.EffectiveDate(), a.ID, b.EffectiveDate(), b.ID) },
	), nil
}

// --- Suppliers ---

func (s *Store) GetSupplier(ctx context.Context, supplierID id.ID) (entity.Supplier, error) {
	defer s.lock(ctx)()
	sup, ok := s.st.suppliers[supplierID]
	if !ok {
		return entity.Supplier{}, apperror.NewNotFound("supplier", supplierID)
	}
	return sup, nil
}

func (s *Store) FindSupplierByName(ctx context.Context, name string) (entity.Supplier, bool, error) {
	defer s.lock(ctx)()
	matches := sortedValues(s.st.suppliers,
		func(sup entity.Supplier) bool { return strings.EqualFold(sup.Name, name) },
		func(a, b entity.Supplier) bool { return a.ID < b.ID },
	)
	if len(matches) == 0 {
		return entity.Supplier{}, false, nil
	}
	return matches[0], true, nil
}

func (s *Store) CreateSupplier(ctx context.Context, sup *entity.Supplier) error {
	defer s.lock(ctx)()
	sup.ID = s.nextID()
	sup.CreatedAt = s.now()
	s.st.suppliers[sup.ID] = *sup
	return nil
}
