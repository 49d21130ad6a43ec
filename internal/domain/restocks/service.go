package restocks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/tx"
	"retailcore/internal/core/types"
	"retailcore/internal/domain/cashbox"
	"retailcore/internal/domain/inventory"
	"retailcore/internal/domain/receipt"
	"retailcore/pkg/logger"
)

// NumberPrefix starts every restock number.
const NumberPrefix = "R"

// Service settles restocks.
type Service struct {
	repo      Repository
	suppliers SupplierRepository
	stock     inventory.Repository
	ledger    *inventory.StockLedger
	cash      *cashbox.Ledger
	numerator Numerator
	txManager tx.Manager
	now       func() time.Time
}

// NewService creates a restock service.
func NewService(
	repo Repository,
	suppliers SupplierRepository,
	stock inventory.Repository,
	cash *cashbox.Ledger,
	numerator Numerator,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		suppliers: suppliers,
		stock:     stock,
		ledger:    inventory.NewStockLedger(stock),
		cash:      cash,
		numerator: numerator,
		txManager: txManager,
		now:       time.Now,
	}
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Create settles a purchase: new items and rolls are created, stock and
// units are added, the paid-now amount leaves the cashbox and the receipt
// status is derived.
func (s *Service) Create(ctx context.Context, actor entity.Actor, in RestockInput) (*RestockView, error) {
	var view *RestockView
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.buildPlan(ctx, in)
		if err != nil {
			return err
		}

		supplierID, err := s.applySupplier(ctx, p.supplier)
		if err != nil {
			return err
		}
		for _, l := range p.lines {
			if l.newItem == nil {
				continue
			}
			if err := s.stock.CreateItem(ctx, l.newItem); err != nil {
				return fmt.Errorf("create item: %w", err)
			}
			l.item = *l.newItem
		}

		date := s.now()
		if in.Date != nil && !in.Date.IsZero() {
			date = *in.Date
		}
		number, err := s.numerator.Next(ctx, NumberPrefix, date)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}

		restock := &entity.Restock{
			Number:     number,
			SupplierID: supplierID,
			UserID:     id.Ptr(actor.ResolveUser(in.UserID)),
			Date:       &date,
			Subtotal:   p.subtotal,
			Tax:        p.tax,
			Total:      p.total,
			Note:       entity.StrPtr(strings.TrimSpace(in.Note)),
			Status:     p.status,
		}
		restock.SetOverride(p.override)
		if err := s.repo.CreateRestock(ctx, restock); err != nil {
			return fmt.Errorf("create restock: %w", err)
		}

		for _, l := range p.lines {
			if err := s.applyLine(ctx, restock.ID, l); err != nil {
				return err
			}
		}

		if p.paid.IsPositive() {
			_, _, err := s.cash.Record(ctx, cashbox.PaymentRecord{
				Kind:       entity.PaymentRestock,
				DocID:      restock.ID,
				Amount:     p.paid,
				Cashbox:    p.cashbox,
				Note:       in.Payment.Note,
				EntryNote:  in.Payment.EntryNote,
				Method:     in.Payment.Method,
				OccurredAt: in.Payment.Date,
				CreatedBy:  actor.ID,
			})
			if err != nil {
				return err
			}
		}

		if _, err := s.RefreshStatus(ctx, restock.ID); err != nil {
			return err
		}
		view, err = s.Get(ctx, restock.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.cash.Committed(ctx)

	logger.Info(ctx, "restock created",
		"restock_id", view.ID,
		"number", view.Number,
		"total", view.Total,
		"paid", view.Paid,
		"status", view.Status,
	)
	return view, nil
}

func (s *Service) applyLine(ctx context.Context, restockID id.ID, l *plannedLine) error {
	if l.mode == entity.ModeMeter {
		for _, length := range l.rolls {
			if err := s.applyRoll(ctx, restockID, l, length); err != nil {
				return err
			}
		}
		return nil
	}

	if err := s.ledger.Put(ctx, l.item.ID, inventory.Pieces(l.qty)); err != nil {
		return err
	}
	line := entity.RestockLine{
		RestockID: restockID,
		ItemID:    l.item.ID,
		Mode:      entity.ModeEach,
		Quantity:  l.qty,
		UnitCost:  l.cost,
	}
	if err := s.repo.CreateRestockLine(ctx, &line); err != nil {
		return fmt.Errorf("create restock line: %w", err)
	}
	if !l.item.UnitTracked() {
		return nil
	}

	units := make([]*entity.InventoryUnit, l.qty)
	for i := range units {
		u := &entity.InventoryUnit{
			ItemID:        l.item.ID,
			RestockLineID: id.Ptr(line.ID),
			Status:        entity.UnitAvailable,
			CostEach:      types.Ptr(l.cost),
		}
		if i < len(l.serials) {
			u.Barcode = entity.StrPtr(l.serials[i])
		} else {
			u.Barcode = entity.StrPtr(id.PlaceholderBarcode(l.item.ID))
			u.IsPlaceholder = true
		}
		units[i] = u
	}
	if err := s.stock.CreateUnits(ctx, units); err != nil {
		return fmt.Errorf("create units: %w", err)
	}
	return nil
}

func (s *Service) applyRoll(ctx context.Context, restockID id.ID, l *plannedLine, length types.Length) error {
	roll := entity.Roll{
		ItemID:       l.item.ID,
		LengthM:      length,
		RemainingM:   length,
		CostPerMeter: types.Ptr(l.cost),
	}
	if err := s.stock.CreateRoll(ctx, &roll); err != nil {
		return fmt.Errorf("create roll: %w", err)
	}
	if err := s.ledger.Put(ctx, l.item.ID, length); err != nil {
		return err
	}

	line := entity.RestockLine{
		RestockID: restockID,
		ItemID:    l.item.ID,
		Mode:      entity.ModeMeter,
		Quantity:  1,
		LengthM:   types.Ptr(length),
		UnitCost:  l.cost,
		RollID:    id.Ptr(roll.ID),
	}
	if err := s.repo.CreateRestockLine(ctx, &line); err != nil {
		return fmt.Errorf("create restock line: %w", err)
	}

	lineage := &entity.InventoryUnit{
		ItemID:        l.item.ID,
		RestockLineID: id.Ptr(line.ID),
		RollID:        id.Ptr(roll.ID),
		Barcode:       entity.StrPtr(id.PlaceholderBarcode(l.item.ID)),
		IsPlaceholder: true,
		Status:        entity.UnitAvailable,
		CostEach:      types.Ptr(l.cost),
	}
	if err := s.stock.CreateUnits(ctx, []*entity.InventoryUnit{lineage}); err != nil {
		return fmt.Errorf("create roll unit: %w", err)
	}
	return nil
}

// AddPayment records a further payment for a restock.
func (s *Service) AddPayment(ctx context.Context, actor entity.Actor, restockID id.ID, in cashbox.PaymentInput) (*RestockView, error) {
	if !in.Amount.IsPositive() {
		return nil, apperror.NewInvalidRequest("Payment amount must be positive")
	}

	var view *RestockView
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		restock, err := s.repo.GetRestockForUpdate(ctx, restockID)
		if err != nil {
			return err
		}
		cb, err := s.cash.PaymentCashbox(ctx, in.Cashbox)
		if err != nil {
			return err
		}
		_, _, err = s.cash.Record(ctx, cashbox.PaymentRecord{
			Kind:       entity.PaymentRestock,
			DocID:      restock.ID,
			Amount:     in.Amount,
			Cashbox:    cb,
			Note:       in.Note,
			EntryNote:  in.EntryNote,
			Method:     in.Method,
			OccurredAt: in.Date,
			CreatedBy:  actor.ID,
		})
		if err != nil {
			return err
		}
		if _, err := s.RefreshStatus(ctx, restock.ID); err != nil {
			return err
		}
		view, err = s.Get(ctx, restock.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.cash.Committed(ctx)

	logger.Info(ctx, "restock payment recorded",
		"restock_id", restockID,
		"amount", in.Amount,
		"paid", view.Paid,
		"status", view.Status,
	)
	return view, nil
}

// SetOverride pins or clears the manual status of a restock.
func (s *Service) SetOverride(ctx context.Context, restockID id.ID, in *receipt.OverrideInput) (*RestockView, error) {
	var view *RestockView
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		restock, err := s.repo.GetRestockForUpdate(ctx, restockID)
		if err != nil {
			return err
		}
		override, err := receipt.ApplyOverride(in, restock.Override(), s.now())
		if err != nil {
			return err
		}
		restock.SetOverride(override)
		if err := s.repo.UpdateRestockStatus(ctx, &restock); err != nil {
			return fmt.Errorf("update restock status: %w", err)
		}
		if _, err := s.RefreshStatus(ctx, restockID); err != nil {
			return err
		}
		view, err = s.Get(ctx, restockID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// RefreshStatus re-derives the status of a restock from its payments and
// override and stores it when it changed. Runs in the caller's transaction.
func (s *Service) RefreshStatus(ctx context.Context, restockID id.ID) (entity.ReceiptStatus, error) {
	restock, err := s.repo.GetRestock(ctx, restockID)
	if err != nil {
		return "", err
	}
	paid, err := s.cash.Paid(ctx, entity.PaymentRestock, restockID)
	if err != nil {
		return "", err
	}
	status := receipt.Resolve(paid, restock.Total, restock.Override())
	if status != restock.Status {
		restock.Status = status
		if err := s.repo.UpdateRestockStatus(ctx, &restock); err != nil {
			return "", fmt.Errorf("update restock status: %w", err)
		}
	}
	return status, nil
}

// Get returns a restock with lines, payments and derived status.
func (s *Service) Get(ctx context.Context, restockID id.ID) (*RestockView, error) {
	restock, err := s.repo.GetRestock(ctx, restockID)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.ListRestockLines(ctx, restockID)
	if err != nil {
		return nil, fmt.Errorf("list restock lines: %w", err)
	}
	payments, err := s.cash.Payments(ctx, entity.PaymentRestock, restockID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	paid, err := s.cash.Paid(ctx, entity.PaymentRestock, restockID)
	if err != nil {
		return nil, err
	}

	view := &RestockView{
		Restock:     restock,
		Lines:       lines,
		Payments:    payments,
		Paid:        paid,
		Outstanding: receipt.Outstanding(paid, restock.Total),
		StatusLabel: receipt.Label(restock.Status),
	}
	if m, ok := restock.Override().Manual(); ok {
		view.ManualStatus = &m
	}
	if restock.SupplierID != nil {
		sup, err := s.suppliers.GetSupplier(ctx, *restock.SupplierID)
		if err != nil && !apperror.IsNotFound(err) {
			return nil, fmt.Errorf("get supplier: %w", err)
		}
		if err == nil {
			view.Supplier = &sup
		}
	}
	return view, nil
}
