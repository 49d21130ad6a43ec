// Package suppliers spreads supplier payments across outstanding restocks.
package suppliers

import (
	"context"
	"fmt"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/tx"
	"retailcore/internal/core/types"
	"retailcore/internal/domain/cashbox"
	"retailcore/internal/domain/receipt"
	"retailcore/pkg/logger"
)

// Repository defines what the allocator reads.
type Repository interface {
	GetSupplier(ctx context.Context, supplierID id.ID) (entity.Supplier, error)
	// ListSupplierRestocksForUpdate locks the supplier's restocks, oldest
	// first by COALESCE(date, created_at), then id.
	ListSupplierRestocksForUpdate(ctx context.Context, supplierID id.ID) ([]entity.Restock, error)
}

// StatusRefresher re-derives the receipt status of a restock.
type StatusRefresher interface {
	RefreshStatus(ctx context.Context, restockID id.ID) (entity.ReceiptStatus, error)
}

// Hint caps how much of a payment one restock may receive.
type Hint struct {
	RestockID id.ID
	Amount    types.Money
}

// DebtPayment is one payment to a supplier.
type DebtPayment struct {
	cashbox.PaymentInput
	Hints []Hint
}

// Slice is the part of a payment applied to one restock.
type Slice struct {
	RestockID id.ID                `json:"restockId"`
	PaymentID id.ID                `json:"paymentId"`
	Amount    types.Money          `json:"amount"`
	Status    entity.ReceiptStatus `json:"statusCode"`
}

// Service allocates supplier payments.
type Service struct {
	repo      Repository
	restocks  StatusRefresher
	cash      *cashbox.Ledger
	txManager tx.Manager
}

// NewService creates the allocator.
func NewService(repo Repository, restocks StatusRefresher, cash *cashbox.Ledger, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		restocks:  restocks,
		cash:      cash,
		txManager: txManager,
	}
}

// Pay walks the supplier's restocks oldest first and pays each one
// min(hint, outstanding, remaining). Every slice is a separate payment with
// its own ledger entry. Money that finds no outstanding restock fails the
// whole payment.
func (s *Service) Pay(ctx context.Context, actor entity.Actor, supplierID id.ID, in DebtPayment) ([]Slice, error) {
	amount := types.RoundMoney(in.Amount)
	if !amount.IsPositive() {
		return nil, apperror.NewInvalidRequest("Payment amount must be greater than 0")
	}

	hints := make(map[id.ID]types.Money, len(in.Hints))
	for _, h := range in.Hints {
		if h.Amount.IsPositive() {
			hints[h.RestockID] = types.RoundMoney(h.Amount)
		}
	}

	var slices []Slice
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetSupplier(ctx, supplierID); err != nil {
			return err
		}
		cb, err := s.cash.PaymentCashbox(ctx, in.Cashbox)
		if err != nil {
			return err
		}
		restocks, err := s.repo.ListSupplierRestocksForUpdate(ctx, supplierID)
		if err != nil {
			return fmt.Errorf("list restocks: %w", err)
		}

		remaining := amount
		for _, r := range restocks {
			if !remaining.IsPositive() {
				break
			}
			paid, err := s.cash.Paid(ctx, entity.PaymentRestock, r.ID)
			if err != nil {
				return err
			}
			outstanding := receipt.Outstanding(paid, r.Total)
			if !outstanding.IsPositive() {
				continue
			}

			portion := types.MinMoney(outstanding, remaining)
			if hint, ok := hints[r.ID]; ok {
				portion = types.MinMoney(portion, hint)
			}
			if !portion.IsPositive() {
				continue
			}

			payment, _, err := s.cash.Record(ctx, cashbox.PaymentRecord{
				Kind:       entity.PaymentRestock,
				DocID:      r.ID,
				Amount:     portion,
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
			status, err := s.restocks.RefreshStatus(ctx, r.ID)
			if err != nil {
				return err
			}

			slices = append(slices, Slice{RestockID: r.ID, PaymentID: payment.ID, Amount: portion, Status: status})
			remaining = types.RoundMoney(remaining.Sub(portion))
		}

		if remaining.GreaterThan(types.Cent) {
			return apperror.NewInvalidRequest("Could not allocate full amount to outstanding restocks").
				WithDetail("unallocated", remaining)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cash.Committed(ctx)

	logger.Info(ctx, "supplier payment allocated",
		"supplier_id", supplierID,
		"amount", amount,
		"slices", len(slices),
	)
	return slices, nil
}
