// Package returns runs the unit-level return workflow:
// sold -> returned -> available | defective.
package returns

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
	"retailcore/internal/domain/inventory"
	"retailcore/pkg/logger"
)

// Repository defines storage of inventory returns.
type Repository interface {
	CreateReturn(ctx context.Context, r *entity.InventoryReturn) error
	GetReturnForUpdate(ctx context.Context, returnID id.ID) (entity.InventoryReturn, error)
	HasPendingReturn(ctx context.Context, unitID id.ID) (bool, error)
	UpdateReturn(ctx context.Context, r *entity.InventoryReturn) error
	// ListReturns orders pending returns first, then newest first.
	ListReturns(ctx context.Context, filter ListFilter) ([]Row, error)
}

// SupplierReader looks suppliers up.
type SupplierReader interface {
	GetSupplier(ctx context.Context, supplierID id.ID) (entity.Supplier, error)
}

// ListFilter narrows the returns list.
type ListFilter struct {
	Status entity.ReturnStatus
	Limit  int
}

// Row is a return with the unit, item and sale it concerns.
type Row struct {
	entity.InventoryReturn
	UnitBarcode  *string           `db:"unit_barcode" json:"unitBarcode,omitempty"`
	UnitStatus   entity.UnitStatus `db:"unit_status" json:"unitStatus"`
	ItemID       id.ID             `db:"item_id" json:"itemId"`
	ItemName     string            `db:"item_name" json:"itemName"`
	SupplierName *string           `db:"supplier_name" json:"supplierName,omitempty"`
	SaleID       *id.ID            `db:"sale_id" json:"saleId,omitempty"`
	SaleLineID   *id.ID            `db:"sale_line_id" json:"saleLineId,omitempty"`
	UnitPrice    *types.Money      `db:"unit_price" json:"unitPrice,omitempty"`
}

// Action is how a pending return is resolved.
type Action string

const (
	ActionRestock          Action = "restock"
	ActionTrash            Action = "trash"
	ActionReturnToSupplier Action = "returnToSupplier"
)

// ParseAction accepts both camelCase and snake_case spellings.
func ParseAction(s string) (Action, bool) {
	switch strings.TrimSpace(s) {
	case "restock":
		return ActionRestock, true
	case "trash":
		return ActionTrash, true
	case "returnToSupplier", "return_to_supplier":
		return ActionReturnToSupplier, true
	}
	return "", false
}

// RequestInput opens a return.
type RequestInput struct {
	UnitID           id.ID
	RequestedOutcome entity.ReturnOutcome
	Note             string
}

// ResolveInput closes a pending return.
type ResolveInput struct {
	Action       Action
	Note         *string
	SupplierID   *id.ID
	SupplierNote string
}

// Service runs the return workflow.
type Service struct {
	repo      Repository
	stock     inventory.Repository
	ledger    *inventory.StockLedger
	suppliers SupplierReader
	txManager tx.Manager
	now       func() time.Time
}

// NewService creates the returns service.
func NewService(repo Repository, stock inventory.Repository, suppliers SupplierReader, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		stock:     stock,
		ledger:    inventory.NewStockLedger(stock),
		suppliers: suppliers,
		txManager: txManager,
		now:       time.Now,
	}
}

// Request marks a sold unit as returned and opens a pending return.
func (s *Service) Request(ctx context.Context, in RequestInput) (entity.InventoryReturn, error) {
	switch in.RequestedOutcome {
	case entity.OutcomeRestock, entity.OutcomeDefective:
	default:
		return entity.InventoryReturn{}, apperror.NewInvalidRequest("Requested outcome must be restock or defective")
	}

	var ret entity.InventoryReturn
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		unit, err := s.stock.GetUnitForUpdate(ctx, in.UnitID)
		if err != nil {
			return err
		}
		if unit.Status != entity.UnitSold {
			return apperror.NewInvalidRequest("Only sold units can be marked for return")
		}
		pending, err := s.repo.HasPendingReturn(ctx, unit.ID)
		if err != nil {
			return fmt.Errorf("check pending return: %w", err)
		}
		if pending {
			return apperror.NewInvalidRequest("Return already pending for this unit")
		}

		if err := s.ledger.MarkUnits(ctx, []id.ID{unit.ID}, entity.UnitReturned); err != nil {
			return err
		}
		ret = entity.InventoryReturn{
			UnitID:           unit.ID,
			RequestedOutcome: in.RequestedOutcome,
			Status:           entity.ReturnPending,
			Note:             entity.StrPtr(strings.TrimSpace(in.Note)),
		}
		return s.repo.CreateReturn(ctx, &ret)
	})
	if err != nil {
		return entity.InventoryReturn{}, err
	}

	logger.Info(ctx, "return requested", "return_id", ret.ID, "unit_id", ret.UnitID, "outcome", ret.RequestedOutcome)
	return ret, nil
}

// Resolve closes a pending return: restock puts the unit back on sale,
// trash and returnToSupplier write it off as defective.
func (s *Service) Resolve(ctx context.Context, returnID id.ID, in ResolveInput) (entity.InventoryReturn, error) {
	var ret entity.InventoryReturn
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		ret, err = s.repo.GetReturnForUpdate(ctx, returnID)
		if err != nil {
			return err
		}
		if ret.Status != entity.ReturnPending {
			return apperror.NewInvalidRequest("Return already resolved")
		}
		unit, err := s.stock.GetUnitForUpdate(ctx, ret.UnitID)
		if err != nil {
			return err
		}

		switch in.Action {
		case ActionRestock:
			if err := s.ledger.MarkUnits(ctx, []id.ID{unit.ID}, entity.UnitAvailable); err != nil {
				return err
			}
			if err := s.ledger.Put(ctx, unit.ItemID, inventory.Pieces(1)); err != nil {
				return err
			}
			ret.Status = entity.ReturnRestocked

		case ActionTrash:
			if err := s.ledger.MarkUnits(ctx, []id.ID{unit.ID}, entity.UnitDefective); err != nil {
				return err
			}
			ret.Status = entity.ReturnTrashed

		case ActionReturnToSupplier:
			ret.SupplierID = nil
			if in.SupplierID != nil {
				sup, err := s.suppliers.GetSupplier(ctx, *in.SupplierID)
				if err != nil {
					if apperror.IsNotFound(err) {
						return apperror.NewInvalidRequest("Supplier %d not found", *in.SupplierID)
					}
					return fmt.Errorf("get supplier: %w", err)
				}
				ret.SupplierID = id.Ptr(sup.ID)
			}
			if err := s.ledger.MarkUnits(ctx, []id.ID{unit.ID}, entity.UnitDefective); err != nil {
				return err
			}
			ret.Status = entity.ReturnReturnedToSupplier
			ret.SupplierNote = entity.StrPtr(strings.TrimSpace(in.SupplierNote))

		default:
			return apperror.NewInvalidRequest("Unknown action %q", in.Action)
		}

		if in.Note != nil {
			ret.Note = entity.StrPtr(strings.TrimSpace(*in.Note))
		}
		now := s.now()
		ret.ResolvedAt = &now
		return s.repo.UpdateReturn(ctx, &ret)
	})
	if err != nil {
		return entity.InventoryReturn{}, err
	}

	logger.Info(ctx, "return resolved", "return_id", ret.ID, "unit_id", ret.UnitID, "status", ret.Status)
	return ret, nil
}

// List returns returns with unit, item and sale details.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Row, error) {
	if filter.Limit <= 0 {
		filter.Limit = 500
	}
	return s.repo.ListReturns(ctx, filter)
}
