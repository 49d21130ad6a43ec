package sales

import (
	"context"
	"fmt"
	"strings"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
	"retailcore/internal/domain/cashbox"
	"retailcore/internal/domain/inventory"
	"retailcore/internal/domain/pricing"
	"retailcore/internal/domain/receipt"
)

// plan is a fully validated sale that has not touched stock yet.
type plan struct {
	userID   id.ID
	customer customerPlan
	lines    []plannedLine
	total    types.Money
	paid     types.Money
	cashbox  entity.Cashbox
	override entity.StatusOverride
	status   entity.ReceiptStatus
}

type plannedLine struct {
	item  entity.Item
	mode  entity.LineMode
	alloc inventory.Allocation
	price types.Money
	// length of a METER line
	length types.Length
}

func (l plannedLine) amount() types.Money {
	if l.mode == entity.ModeMeter {
		return l.price.Mul(l.length)
	}
	return l.price.Mul(inventory.Pieces(l.alloc.Quantity))
}

// customerPlan defers customer writes until the sale is known to be valid.
type customerPlan struct {
	existing *entity.Customer
	create   *entity.Customer
	contact  string
}

// buildPlan validates the request, allocates inventory and prices lines.
// It only takes row locks; nothing is written.
func (s *Service) buildPlan(ctx context.Context, actor entity.Actor, in SaleInput, locked []id.ID, current entity.StatusOverride) (*plan, error) {
	if len(in.Lines) == 0 {
		return nil, apperror.NewInvalidRequest("No items provided for the sale")
	}

	p := &plan{userID: actor.ResolveUser(in.UserID)}
	if !id.Valid(p.userID) {
		return nil, apperror.NewInvalidRequest("Missing user for the sale")
	}

	var err error
	if p.customer, err = s.planCustomer(ctx, in.Customer); err != nil {
		return nil, err
	}

	ids := make([]id.ID, 0, len(in.Lines))
	for _, l := range in.Lines {
		ids = append(ids, l.ItemID)
	}
	items, err := s.stock.GetItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}

	session := s.allocator.Begin(locked)
	amounts := make([]types.Money, 0, len(in.Lines))
	for _, l := range in.Lines {
		item, ok := items[l.ItemID]
		if !ok {
			return nil, apperror.NewInvalidRequest("Item with id %d not found", l.ItemID)
		}
		mode := l.Mode
		if mode == "" {
			mode = entity.ModeEach
		}
		alloc, err := session.Allocate(ctx, inventory.LineRequest{
			Item:     item,
			Mode:     mode,
			Quantity: l.Quantity,
			UnitIDs:  l.UnitIDs,
			LengthM:  l.LengthM,
			RollID:   l.RollID,
		})
		if err != nil {
			return nil, err
		}
		if l.UnitPrice != nil && !types.HasMoneyPrecision(*l.UnitPrice) {
			return nil, apperror.NewInvalidRequest("Unit price of %q has more than 2 decimals", item.Name)
		}

		pl := plannedLine{
			item:   item,
			mode:   mode,
			alloc:  alloc,
			price:  pricing.Resolve(item, l.Tier, l.UnitPrice),
			length: l.LengthM,
		}
		p.lines = append(p.lines, pl)
		amounts = append(amounts, pl.amount())
	}
	p.total = types.SumMoney(amounts...)

	p.paid = types.RoundMoney(in.Payment.Amount)
	if p.paid.IsNegative() {
		return nil, apperror.NewInvalidRequest("Paid amount cannot be negative")
	}
	if p.paid.IsPositive() {
		if p.cashbox, err = s.cash.PaymentCashbox(ctx, in.Payment.Cashbox); err != nil {
			return nil, err
		}
	}

	if p.override, err = receipt.ApplyOverride(in.Override, current, s.now()); err != nil {
		return nil, err
	}
	p.status = receipt.Resolve(p.paid, p.total, p.override)
	return p, nil
}

func (s *Service) planCustomer(ctx context.Context, in CustomerInput) (customerPlan, error) {
	phone := s.normalizePhone(in.Phone)

	if in.ID != nil {
		if !id.Valid(*in.ID) {
			return customerPlan{}, apperror.NewInvalidRequest("Invalid customer id")
		}
		c, err := s.customers.GetCustomer(ctx, *in.ID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return customerPlan{}, apperror.NewInvalidRequest("Customer %d not found", *in.ID)
			}
			return customerPlan{}, fmt.Errorf("get customer: %w", err)
		}
		return existingCustomer(c, phone), nil
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return customerPlan{}, nil
	}
	c, found, err := s.customers.FindCustomerByName(ctx, name)
	if err != nil {
		return customerPlan{}, fmt.Errorf("find customer: %w", err)
	}
	if found {
		return existingCustomer(c, phone), nil
	}
	return customerPlan{create: &entity.Customer{
		Name:         name,
		ContactInfo:  entity.StrPtr(phone),
		CustomerType: "regular",
	}}, nil
}

func existingCustomer(c entity.Customer, phone string) customerPlan {
	cp := customerPlan{existing: &c}
	if phone != "" && entity.StrVal(c.ContactInfo) != phone {
		cp.contact = phone
	}
	return cp
}

// applyCustomer performs the deferred customer writes and returns the id to
// store on the sale.
func (s *Service) applyCustomer(ctx context.Context, cp customerPlan) (*id.ID, error) {
	switch {
	case cp.create != nil:
		if err := s.customers.CreateCustomer(ctx, cp.create); err != nil {
			return nil, fmt.Errorf("create customer: %w", err)
		}
		return id.Ptr(cp.create.ID), nil
	case cp.existing != nil:
		if cp.contact != "" {
			if err := s.customers.UpdateCustomerContact(ctx, cp.existing.ID, cp.contact); err != nil {
				return nil, fmt.Errorf("update customer contact: %w", err)
			}
		}
		return id.Ptr(cp.existing.ID), nil
	}
	return nil, nil
}

// applyLines mutates stock and writes the lines of sale.
func (s *Service) applyLines(ctx context.Context, sale *entity.Sale, p *plan) error {
	for i, pl := range p.lines {
		line := entity.SaleLine{
			SaleID:    sale.ID,
			Position:  i + 1,
			ItemID:    pl.item.ID,
			Mode:      pl.mode,
			Quantity:  pl.alloc.Quantity,
			PriceEach: pl.price,
			CostEach:  pl.alloc.CostEach(),
			UnitIDs:   pl.alloc.UnitIDs(),
		}

		switch pl.mode {
		case entity.ModeMeter:
			if err := s.ledger.Cut(ctx, pl.item, *pl.alloc.Roll, pl.length); err != nil {
				return err
			}
			line.LengthM = types.Ptr(pl.length)
			line.RollID = id.Ptr(pl.alloc.Roll.ID)
		default:
			if err := s.ledger.Take(ctx, pl.item, inventory.Pieces(pl.alloc.Quantity)); err != nil {
				return err
			}
		}

		if err := s.repo.CreateSaleLine(ctx, &line); err != nil {
			return fmt.Errorf("create sale line: %w", err)
		}
		if err := s.ledger.MarkUnits(ctx, line.UnitIDs, entity.UnitSold); err != nil {
			return err
		}
	}
	return nil
}

// applyPayment records the "paid now" amount of a create or edit request.
func (s *Service) applyPayment(ctx context.Context, sale *entity.Sale, p *plan, in cashbox.PaymentInput) error {
	if !p.paid.IsPositive() {
		return nil
	}
	_, _, err := s.cash.Record(ctx, cashbox.PaymentRecord{
		Kind:       entity.PaymentSale,
		DocID:      sale.ID,
		Amount:     p.paid,
		Cashbox:    p.cashbox,
		Note:       in.Note,
		EntryNote:  in.EntryNote,
		Method:     in.Method,
		OccurredAt: in.Date,
		CreatedBy:  p.userID,
	})
	return err
}

// restore undoes the inventory effects of existing lines: stock and roll
// lengths go back and units still marked sold become available.
func (s *Service) restore(ctx context.Context, lines []entity.SaleLine) error {
	var unitIDs []id.ID
	for _, l := range lines {
		unitIDs = append(unitIDs, l.UnitIDs...)
	}
	if len(unitIDs) > 0 {
		units, err := s.stock.GetUnitsForUpdate(ctx, unitIDs)
		if err != nil {
			return fmt.Errorf("lock sold units: %w", err)
		}
		var sold []id.ID
		for _, u := range units {
			if u.Status == entity.UnitSold {
				sold = append(sold, u.ID)
			}
		}
		if err := s.ledger.MarkUnits(ctx, sold, entity.UnitAvailable); err != nil {
			return err
		}
	}

	for _, l := range lines {
		if l.Mode == entity.ModeMeter && l.LengthM != nil {
			if l.RollID != nil {
				if err := s.ledger.Uncut(ctx, l.ItemID, *l.RollID, *l.LengthM); err != nil {
					return err
				}
				continue
			}
			if err := s.ledger.Put(ctx, l.ItemID, *l.LengthM); err != nil {
				return err
			}
			continue
		}
		if err := s.ledger.Put(ctx, l.ItemID, inventory.Pieces(l.Quantity)); err != nil {
			return err
		}
	}
	return nil
}
