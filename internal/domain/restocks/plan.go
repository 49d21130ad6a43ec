package restocks

import (
	"context"
	"fmt"
	"strings"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
	"retailcore/internal/domain/inventory"
	"retailcore/internal/domain/receipt"
)

type plan struct {
	supplier supplierPlan
	lines    []*plannedLine
	subtotal types.Money
	tax      types.Money
	total    types.Money
	paid     types.Money
	cashbox  entity.Cashbox
	override entity.StatusOverride
	status   entity.ReceiptStatus
}

type plannedLine struct {
	// item is the existing item; for new items it is filled in once newItem
	// has been inserted.
	item    entity.Item
	newItem *entity.Item
	mode    entity.LineMode
	qty     int
	serials []string
	rolls   []types.Length
	cost    types.Money
}

type supplierPlan struct {
	existing *entity.Supplier
	create   *entity.Supplier
}

// buildPlan validates the whole request before anything is written.
func (s *Service) buildPlan(ctx context.Context, in RestockInput) (*plan, error) {
	if len(in.Lines) == 0 {
		return nil, apperror.NewInvalidRequest("No items provided for the restock")
	}

	var ids []id.ID
	for i, l := range in.Lines {
		hasID, hasNew := id.Valid(l.ItemID), l.NewItem != nil
		if hasID == hasNew {
			return nil, apperror.NewInvalidRequest("Line %d must reference either an existing item or a new item", i+1)
		}
		if hasID {
			ids = append(ids, l.ItemID)
		}
	}
	items, err := s.stock.GetItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}

	p := &plan{}
	var (
		amounts []types.Money
		serials = map[string]struct{}{}
		all     []string
	)
	for _, l := range in.Lines {
		pl, err := planLine(l, items)
		if err != nil {
			return nil, err
		}
		for _, sn := range pl.serials {
			if _, dup := serials[sn]; dup {
				return nil, apperror.NewInvalidRequest("Duplicate serial number %q", sn)
			}
			serials[sn] = struct{}{}
			all = append(all, sn)
		}
		if pl.mode == entity.ModeMeter {
			for _, length := range pl.rolls {
				amounts = append(amounts, types.RoundMoney(pl.cost.Mul(length)))
			}
		} else {
			amounts = append(amounts, types.RoundMoney(pl.cost.Mul(inventory.Pieces(pl.qty))))
		}
		p.lines = append(p.lines, pl)
	}

	if len(all) > 0 {
		taken, err := s.stock.ExistingBarcodes(ctx, all)
		if err != nil {
			return nil, fmt.Errorf("check serials: %w", err)
		}
		if len(taken) > 0 {
			return nil, apperror.NewInvalidRequest("Serial numbers already exist in inventory").
				WithDetail("serials", taken)
		}
	}

	if in.Tax.IsNegative() || !types.HasMoneyPrecision(in.Tax) {
		return nil, apperror.NewInvalidRequest("Tax must be non-negative with at most 2 decimals")
	}
	p.subtotal = types.SumMoney(amounts...)
	p.tax = types.RoundMoney(in.Tax)
	p.total = types.RoundMoney(p.subtotal.Add(p.tax))

	p.paid = types.RoundMoney(in.Payment.Amount)
	if p.paid.IsNegative() {
		return nil, apperror.NewInvalidRequest("Paid amount cannot be negative")
	}
	if p.paid.IsPositive() {
		if p.cashbox, err = s.cash.PaymentCashbox(ctx, in.Payment.Cashbox); err != nil {
			return nil, err
		}
	}

	if p.supplier, err = s.planSupplier(ctx, in.Supplier); err != nil {
		return nil, err
	}

	if p.override, err = receipt.ApplyOverride(in.Override, entity.Computed(), s.now()); err != nil {
		return nil, err
	}
	p.status = receipt.Resolve(p.paid, p.total, p.override)
	return p, nil
}

func planLine(l LineInput, items map[id.ID]entity.Item) (*plannedLine, error) {
	pl := &plannedLine{cost: l.UnitCost}
	if l.NewItem != nil {
		item, err := newItem(*l.NewItem)
		if err != nil {
			return nil, err
		}
		pl.newItem = &item
		pl.item = item
	} else {
		item, ok := items[l.ItemID]
		if !ok {
			return nil, apperror.NewInvalidRequest("Item %d not found", l.ItemID)
		}
		pl.item = item
	}
	item := pl.item

	if l.UnitCost.IsNegative() || !types.HasMoneyPrecision(l.UnitCost) {
		return nil, apperror.NewInvalidRequest("Unit cost of %q must be non-negative with at most 2 decimals", item.Name)
	}

	pl.mode = l.Mode
	if pl.mode == "" {
		pl.mode = entity.ModeEach
		if item.IsMeter() {
			pl.mode = entity.ModeMeter
		}
	}

	switch pl.mode {
	case entity.ModeEach:
		if item.IsMeter() {
			return nil, apperror.NewInvalidRequest("Item %q is sold by length; use METER mode", item.Name)
		}
		if l.Quantity <= 0 {
			return nil, apperror.NewInvalidRequest("Quantity of %q must be a positive whole number", item.Name)
		}
		pl.qty = l.Quantity
		serials, err := planSerials(item, l, pl.qty)
		if err != nil {
			return nil, err
		}
		pl.serials = serials

	case entity.ModeMeter:
		if !item.IsMeter() {
			return nil, apperror.NewInvalidRequest("Item %q is counted in pieces; use EACH mode", item.Name)
		}
		if len(l.NewRolls) == 0 {
			return nil, apperror.NewInvalidRequest("newRolls must contain at least one length for %q", item.Name)
		}
		for _, length := range l.NewRolls {
			if !length.IsPositive() || !types.HasLengthPrecision(length) {
				return nil, apperror.NewInvalidRequest("Roll lengths of %q must be positive with at most 3 decimals", item.Name)
			}
		}
		pl.rolls = l.NewRolls

	default:
		return nil, apperror.NewInvalidRequest("Unknown line mode %q", l.Mode)
	}
	return pl, nil
}

// planSerials enforces that a tracked line gets its units from exactly one
// source: explicit serials matching the quantity, or generated placeholders.
func planSerials(item entity.Item, l LineInput, qty int) ([]string, error) {
	var cleaned []string
	for _, sn := range l.Serials {
		if sn = strings.TrimSpace(sn); sn != "" {
			cleaned = append(cleaned, sn)
		}
	}

	if !item.UnitTracked() {
		if len(cleaned) > 0 {
			return nil, apperror.NewInvalidRequest("Item %q does not track serial numbers", item.Name)
		}
		return nil, nil
	}
	if l.AutoSerial && len(cleaned) > 0 {
		return nil, apperror.NewInvalidRequest("Cannot supply serial numbers and enable auto generation for %q", item.Name)
	}
	if !l.AutoSerial && len(cleaned) != qty {
		return nil, apperror.NewInvalidRequest("Provide exactly %d serial numbers for %q or enable auto generation", qty, item.Name)
	}
	return cleaned, nil
}

func newItem(in NewItemInput) (entity.Item, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return entity.Item{}, apperror.NewInvalidRequest("New item name is required")
	}
	unit := in.StockUnit
	switch unit {
	case "":
		unit = entity.StockUnitPiece
	case entity.StockUnitPiece, entity.StockUnitMeter:
	default:
		return entity.Item{}, apperror.NewInvalidRequest("Unknown stock unit %q", in.StockUnit)
	}
	for _, price := range []*types.Money{in.PriceRetail, in.PriceWholesale} {
		if price != nil && (price.IsNegative() || !types.HasMoneyPrecision(*price)) {
			return entity.Item{}, apperror.NewInvalidRequest("Prices of %q must be non-negative with at most 2 decimals", name)
		}
	}

	item := entity.Item{
		Name:           name,
		Category:       entity.StrPtr(strings.TrimSpace(in.Category)),
		Unit:           unit,
		Stock:          types.Zero(),
		PriceRetail:    in.PriceRetail,
		PriceWholesale: in.PriceWholesale,
		TrackUnits:     unit == entity.StockUnitPiece,
	}
	if in.TrackUnits != nil {
		item.TrackUnits = *in.TrackUnits && unit == entity.StockUnitPiece
	}
	switch {
	case in.PriceRetail != nil:
		item.Price = in.PriceRetail
	case in.PriceWholesale != nil:
		item.Price = in.PriceWholesale
	}
	return item, nil
}

func (s *Service) planSupplier(ctx context.Context, in SupplierInput) (supplierPlan, error) {
	if in.ID != nil {
		sup, err := s.suppliers.GetSupplier(ctx, *in.ID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return supplierPlan{}, apperror.NewInvalidRequest("Supplier %d not found", *in.ID)
			}
			return supplierPlan{}, fmt.Errorf("get supplier: %w", err)
		}
		return supplierPlan{existing: &sup}, nil
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return supplierPlan{}, apperror.NewInvalidRequest("Supplier name is required")
	}
	sup, found, err := s.suppliers.FindSupplierByName(ctx, name)
	if err != nil {
		return supplierPlan{}, fmt.Errorf("find supplier: %w", err)
	}
	if found {
		return supplierPlan{existing: &sup}, nil
	}
	return supplierPlan{create: &entity.Supplier{Name: name}}, nil
}

func (s *Service) applySupplier(ctx context.Context, sp supplierPlan) (*id.ID, error) {
	if sp.create != nil {
		if err := s.suppliers.CreateSupplier(ctx, sp.create); err != nil {
			return nil, fmt.Errorf("create supplier: %w", err)
		}
		return id.Ptr(sp.create.ID), nil
	}
	return id.Ptr(sp.existing.ID), nil
}
