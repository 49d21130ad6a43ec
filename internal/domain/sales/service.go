package sales

import (
	"context"
	"fmt"
	"strings"
	"time"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/tx"
	"retailcore/internal/domain/cashbox"
	"retailcore/internal/domain/inventory"
	"retailcore/internal/domain/receipt"
	"retailcore/pkg/logger"
)

// NumberPrefix starts every sale number.
const NumberPrefix = "S"

// AuditEntityType tags sale snapshots in the audit trail.
const AuditEntityType = "sale"

// Service settles sales.
type Service struct {
	repo      Repository
	customers CustomerRepository
	stock     inventory.Repository
	allocator *inventory.Allocator
	ledger    *inventory.StockLedger
	cash      *cashbox.Ledger
	numerator Numerator
	txManager tx.Manager

	auditor Auditor
	phones  PhoneNormalizer
	now     func() time.Time
}

// Option configures optional collaborators of the service.
type Option func(*Service)

// WithAuditor stores a snapshot of every sale before it is edited.
func WithAuditor(a Auditor) Option {
	return func(s *Service) { s.auditor = a }
}

// WithPhoneNormalizer canonicalizes customer phones.
func WithPhoneNormalizer(p PhoneNormalizer) Option {
	return func(s *Service) { s.phones = p }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a sales service.
func NewService(
	repo Repository,
	customers CustomerRepository,
	stock inventory.Repository,
	cash *cashbox.Ledger,
	numerator Numerator,
	txManager tx.Manager,
	opts ...Option,
) *Service {
	s := &Service{
		repo:      repo,
		customers: customers,
		stock:     stock,
		allocator: inventory.NewAllocator(stock),
		ledger:    inventory.NewStockLedger(stock),
		cash:      cash,
		numerator: numerator,
		txManager: txManager,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create settles a new sale: allocates and takes inventory, stores the lines,
// records the paid-now amount and derives the receipt status.
func (s *Service) Create(ctx context.Context, actor entity.Actor, in SaleInput) (*SaleView, error) {
	var view *SaleView
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.buildPlan(ctx, actor, in, nil, entity.Computed())
		if err != nil {
			return err
		}

		customerID, err := s.applyCustomer(ctx, p.customer)
		if err != nil {
			return err
		}

		date := s.now()
		if in.Date != nil && !in.Date.IsZero() {
			date = *in.Date
		}
		number, err := s.numerator.Next(ctx, NumberPrefix, date)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}

		sale := &entity.Sale{
			Number:      number,
			UserID:      p.userID,
			CustomerID:  customerID,
			Total:       p.total,
			ReceiptType: receiptType(in.ReceiptType),
			Note:        entity.StrPtr(strings.TrimSpace(in.Note)),
			Status:      p.status,
			Date:        date,
		}
		sale.SetOverride(p.override)
		if err := s.repo.CreateSale(ctx, sale); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}

		if err := s.applyLines(ctx, sale, p); err != nil {
			return err
		}
		if err := s.applyPayment(ctx, sale, p, in.Payment); err != nil {
			return err
		}

		view, err = s.settle(ctx, sale.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.cash.Committed(ctx)

	logger.Info(ctx, "sale created",
		"sale_id", view.ID,
		"number", view.Number,
		"total", view.Total,
		"paid", view.Paid,
		"status", view.Status,
	)
	return view, nil
}

// Edit replaces the lines of a sale. Previous inventory effects are undone
// first, then the new lines are settled as on creation.
func (s *Service) Edit(ctx context.Context, actor entity.Actor, saleID id.ID, in EditInput) (*SaleView, error) {
	editNote := strings.TrimSpace(in.EditNote)
	if editNote == "" {
		return nil, apperror.NewInvalidRequest("Edit note is required")
	}
	editor := actor.ResolveUser(in.UserID)
	if !id.Valid(editor) {
		return nil, apperror.NewInvalidRequest("Missing user for the edit")
	}

	var view *SaleView
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sale, err := s.repo.GetSaleForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		lines, err := s.repo.ListSaleLinesForUpdate(ctx, saleID)
		if err != nil {
			return fmt.Errorf("lock sale lines: %w", err)
		}

		if s.auditor != nil {
			before, err := s.load(ctx, sale)
			if err != nil {
				return err
			}
			if err := s.auditor.Record(ctx, AuditEntityType, saleID, "edit", editor, before); err != nil {
				return fmt.Errorf("audit sale: %w", err)
			}
		}

		var locked []id.ID
		for _, l := range lines {
			locked = append(locked, l.UnitIDs...)
		}
		if err := s.restore(ctx, lines); err != nil {
			return err
		}
		if err := s.repo.DeleteSaleLines(ctx, saleID); err != nil {
			return fmt.Errorf("delete sale lines: %w", err)
		}

		p, err := s.buildPlan(ctx, actor, in.SaleInput, locked, sale.Override())
		if err != nil {
			return err
		}
		customerID, err := s.applyCustomer(ctx, p.customer)
		if err != nil {
			return err
		}

		now := s.now()
		sale.UserID = p.userID
		sale.CustomerID = customerID
		sale.Total = p.total
		sale.ReceiptType = receiptType(in.ReceiptType)
		sale.Note = entity.StrPtr(strings.TrimSpace(in.Note))
		sale.Status = p.status
		sale.SetOverride(p.override)
		sale.LastEditNote = &editNote
		sale.LastEditAt = &now
		sale.LastEditUser = &editor
		if err := s.repo.UpdateSale(ctx, &sale); err != nil {
			return fmt.Errorf("update sale: %w", err)
		}

		if err := s.applyLines(ctx, &sale, p); err != nil {
			return err
		}
		if err := s.applyPayment(ctx, &sale, p, in.Payment); err != nil {
			return err
		}

		view, err = s.settle(ctx, sale.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.cash.Committed(ctx)

	logger.Info(ctx, "sale edited",
		"sale_id", view.ID,
		"editor_id", editor,
		"total", view.Total,
		"paid", view.Paid,
		"status", view.Status,
	)
	return view, nil
}

// AddPayment records a further payment against a sale.
func (s *Service) AddPayment(ctx context.Context, actor entity.Actor, saleID id.ID, in cashbox.PaymentInput) (*SaleView, error) {
	if !in.Amount.IsPositive() {
		return nil, apperror.NewInvalidRequest("Payment amount must be positive")
	}

	var view *SaleView
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sale, err := s.repo.GetSaleForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		cb, err := s.cash.PaymentCashbox(ctx, in.Cashbox)
		if err != nil {
			return err
		}
		_, _, err = s.cash.Record(ctx, cashbox.PaymentRecord{
			Kind:       entity.PaymentSale,
			DocID:      sale.ID,
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

		view, err = s.settle(ctx, sale.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.cash.Committed(ctx)

	logger.Info(ctx, "sale payment recorded",
		"sale_id", saleID,
		"amount", in.Amount,
		"paid", view.Paid,
		"status", view.Status,
	)
	return view, nil
}

// SetOverride pins the sale status to a manual value, or clears the pin when
// in is nil, and stores the resulting status.
func (s *Service) SetOverride(ctx context.Context, saleID id.ID, in *receipt.OverrideInput) (*SaleView, error) {
	var view *SaleView
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sale, err := s.repo.GetSaleForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		override, err := receipt.ApplyOverride(in, sale.Override(), s.now())
		if err != nil {
			return err
		}
		sale.SetOverride(override)
		if err := s.repo.UpdateSaleStatus(ctx, &sale); err != nil {
			return fmt.Errorf("update sale status: %w", err)
		}

		view, err = s.settle(ctx, sale.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Get returns a sale with lines, units, payments and derived status.
func (s *Service) Get(ctx context.Context, saleID id.ID) (*SaleView, error) {
	sale, err := s.repo.GetSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, sale)
}

// settle re-derives paid and status from the ledger, persists a changed
// status and returns the loaded sale.
func (s *Service) settle(ctx context.Context, saleID id.ID) (*SaleView, error) {
	sale, err := s.repo.GetSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	paid, err := s.cash.Paid(ctx, entity.PaymentSale, saleID)
	if err != nil {
		return nil, err
	}
	if status := receipt.Resolve(paid, sale.Total, sale.Override()); status != sale.Status {
		sale.Status = status
		if err := s.repo.UpdateSaleStatus(ctx, &sale); err != nil {
			return nil, fmt.Errorf("update sale status: %w", err)
		}
	}
	return s.load(ctx, sale)
}

func (s *Service) load(ctx context.Context, sale entity.Sale) (*SaleView, error) {
	lines, err := s.repo.ListSaleLines(ctx, sale.ID)
	if err != nil {
		return nil, fmt.Errorf("list sale lines: %w", err)
	}
	payments, err := s.cash.Payments(ctx, entity.PaymentSale, sale.ID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	paid, err := s.cash.Paid(ctx, entity.PaymentSale, sale.ID)
	if err != nil {
		return nil, err
	}

	view := &SaleView{
		Sale:        sale,
		Payments:    payments,
		Paid:        paid,
		Outstanding: receipt.Outstanding(paid, sale.Total),
		StatusLabel: receipt.Label(sale.Status),
	}
	if m, ok := sale.Override().Manual(); ok {
		view.ManualStatus = &m
	}
	if sale.CustomerID != nil {
		c, err := s.customers.GetCustomer(ctx, *sale.CustomerID)
		if err != nil && !apperror.IsNotFound(err) {
			return nil, fmt.Errorf("get customer: %w", err)
		}
		if err == nil {
			view.Customer = &c
		}
	}

	view.Lines, err = s.lineViews(ctx, lines)
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *Service) lineViews(ctx context.Context, lines []entity.SaleLine) ([]LineView, error) {
	var unitIDs []id.ID
	for _, l := range lines {
		unitIDs = append(unitIDs, l.UnitIDs...)
	}

	units := map[id.ID]entity.InventoryUnit{}
	returns := map[id.ID]entity.InventoryReturn{}
	if len(unitIDs) > 0 {
		found, err := s.stock.GetUnits(ctx, unitIDs)
		if err != nil {
			return nil, fmt.Errorf("get units: %w", err)
		}
		for _, u := range found {
			units[u.ID] = u
		}
		if returns, err = s.stock.LatestReturns(ctx, unitIDs); err != nil {
			return nil, fmt.Errorf("latest returns: %w", err)
		}
	}

	views := make([]LineView, len(lines))
	for i, l := range lines {
		views[i] = LineView{SaleLine: l}
		for _, uid := range l.UnitIDs {
			u, ok := units[uid]
			if !ok {
				continue
			}
			uv := UnitView{InventoryUnit: u}
			if r, ok := returns[uid]; ok {
				uv.LatestReturn = &ReturnRef{ID: r.ID, Status: r.Status}
			}
			views[i].Units = append(views[i].Units, uv)
		}
	}
	return views, nil
}

func (s *Service) normalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || s.phones == nil {
		return raw
	}
	return s.phones.Normalize(raw)
}

func receiptType(t string) string {
	if t = strings.TrimSpace(t); t != "" {
		return t
	}
	return "simple"
}
