package inventory

import (
	"context"
	"fmt"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/tx"
	"retailcore/internal/core/types"
	"retailcore/pkg/logger"
)

// RollService manages rolls of meter items outside of restocks.
type RollService struct {
	repo      Repository
	ledger    *StockLedger
	txManager tx.Manager
}

// NewRollService creates a roll service.
func NewRollService(repo Repository, txManager tx.Manager) *RollService {
	return &RollService{
		repo:      repo,
		ledger:    NewStockLedger(repo),
		txManager: txManager,
	}
}

// CreateRollRequest describes a roll added by hand.
type CreateRollRequest struct {
	ItemID       id.ID
	LengthM      types.Length
	CostPerMeter *types.Money
}

// Create adds a full roll to a meter item and raises the item's stock by
// its length.
func (s *RollService) Create(ctx context.Context, req CreateRollRequest) (entity.Roll, error) {
	if !req.LengthM.IsPositive() || !types.HasLengthPrecision(req.LengthM) {
		return entity.Roll{}, apperror.NewInvalidRequest("Roll length must be positive with at most 3 decimals")
	}
	if req.CostPerMeter != nil && req.CostPerMeter.IsNegative() {
		return entity.Roll{}, apperror.NewInvalidRequest("Cost per meter cannot be negative")
	}

	var roll entity.Roll
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetItem(ctx, req.ItemID)
		if err != nil {
			return err
		}
		if !item.IsMeter() {
			return apperror.NewInvalidRequest("Item %q is not sold by length", item.Name)
		}

		roll = entity.Roll{
			ItemID:     item.ID,
			LengthM:    req.LengthM,
			RemainingM: req.LengthM,
		}
		if req.CostPerMeter != nil {
			roll.CostPerMeter = types.Ptr(types.RoundMoney(*req.CostPerMeter))
		}
		if err := s.repo.CreateRoll(ctx, &roll); err != nil {
			return fmt.Errorf("create roll: %w", err)
		}
		return s.ledger.Put(ctx, item.ID, roll.LengthM)
	})
	if err != nil {
		return entity.Roll{}, err
	}

	logger.Info(ctx, "roll created", "roll_id", roll.ID, "item_id", roll.ItemID, "length_m", roll.LengthM)
	return roll, nil
}

// ListByItem returns the rolls of an item, oldest first.
func (s *RollService) ListByItem(ctx context.Context, itemID id.ID) ([]entity.Roll, error) {
	if _, err := s.repo.GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	return s.repo.ListRolls(ctx, itemID)
}

// Delete removes a roll that no sale was cut from and takes its remaining
// length out of the item's stock, stopping at zero.
func (s *RollService) Delete(ctx context.Context, rollID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		roll, err := s.repo.GetRollForUpdate(ctx, rollID)
		if err != nil {
			return err
		}
		used, err := s.repo.RollHasSales(ctx, rollID)
		if err != nil {
			return fmt.Errorf("check roll usage: %w", err)
		}
		if used {
			return apperror.NewInvalidRequest("Roll %d has sales and cannot be deleted", rollID)
		}

		item, err := s.repo.GetItem(ctx, roll.ItemID)
		if err != nil {
			return err
		}
		if take := types.MinMoney(roll.RemainingM, item.Stock); take.IsPositive() {
			if err := s.ledger.Take(ctx, item, take); err != nil {
				return err
			}
		}
		return s.repo.DeleteRoll(ctx, rollID)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "roll deleted", "roll_id", rollID)
	return nil
}
