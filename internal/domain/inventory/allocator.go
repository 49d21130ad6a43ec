package inventory

import (
	"context"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
)

// LineRequest is one line to allocate inventory for.
type LineRequest struct {
	Item entity.Item
	Mode entity.LineMode

	// EACH
	Quantity int
	UnitIDs  []id.ID

	// METER
	LengthM types.Length
	RollID  *id.ID
}

// Allocation is what a line will consume.
type Allocation struct {
	// Quantity is the piece count of an EACH line after pinned units were
	// taken into account.
	Quantity int
	Units    []entity.InventoryUnit
	Roll     *entity.Roll
}

// UnitIDs lists the allocated unit ids in allocation order.
func (a Allocation) UnitIDs() []id.ID {
	ids := make([]id.ID, len(a.Units))
	for i, u := range a.Units {
		ids[i] = u.ID
	}
	return ids
}

// CostEach is the cost snapshot stored on the sale line: the average unit
// cost for EACH lines with units, the roll's cost per meter for METER lines.
func (a Allocation) CostEach() *types.Money {
	switch {
	case a.Roll != nil:
		cost := types.Zero()
		if a.Roll.CostPerMeter != nil {
			cost = *a.Roll.CostPerMeter
		}
		return types.Ptr(types.RoundMoney(cost))
	case len(a.Units) > 0:
		sum := types.Zero()
		for _, u := range a.Units {
			if u.CostEach != nil {
				sum = sum.Add(*u.CostEach)
			}
		}
		return types.Ptr(types.RoundMoney(sum.Div(decimal.NewFromInt(int64(len(a.Units))))))
	}
	return nil
}

// Allocator picks inventory for sale lines.
type Allocator struct {
	repo Repository
}

// NewAllocator creates an allocator.
func NewAllocator(repo Repository) *Allocator {
	return &Allocator{repo: repo}
}

// Begin starts allocating the lines of one request.
// lockedUnitIDs are units already held by the document being edited; they
// may be pinned again even if their status is no longer available.
func (a *Allocator) Begin(lockedUnitIDs []id.ID) *Session {
	s := &Session{
		repo:    a.repo,
		locked:  make(map[id.ID]struct{}, len(lockedUnitIDs)),
		used:    make(map[id.ID]struct{}),
		claimed: make(map[id.ID]types.Length),
		rolls:   make(map[id.ID]*entity.Roll),
	}
	for _, uid := range lockedUnitIDs {
		s.locked[uid] = struct{}{}
	}
	return s
}

// Session allocates the lines of a single request. It remembers what earlier
// lines claimed so that no unit is taken twice and no roll or item stock is
// overdrawn across lines.
type Session struct {
	repo    Repository
	locked  map[id.ID]struct{}
	used    map[id.ID]struct{}
	usedIDs []id.ID
	claimed map[id.ID]types.Length
	// rolls holds locked rolls with the remaining length left after the
	// claims of earlier lines.
	rolls map[id.ID]*entity.Roll
}

// Allocate validates a line against the item and picks its units or roll.
func (s *Session) Allocate(ctx context.Context, line LineRequest) (Allocation, error) {
	item := line.Item
	switch line.Mode {
	case entity.ModeEach:
		if item.IsMeter() {
			return Allocation{}, apperror.NewInvalidRequest("Item %q is sold by length; use METER mode", item.Name)
		}
		return s.allocateEach(ctx, line)
	case entity.ModeMeter:
		if !item.IsMeter() {
			return Allocation{}, apperror.NewInvalidRequest("Item %q is counted in pieces; use EACH mode", item.Name)
		}
		return s.allocateMeter(ctx, line)
	default:
		return Allocation{}, apperror.NewInvalidRequest("Unknown line mode %q", line.Mode)
	}
}

func (s *Session) allocateEach(ctx context.Context, line LineRequest) (Allocation, error) {
	item := line.Item
	pinned := uniqueIDs(line.UnitIDs)
	qty := line.Quantity

	if len(pinned) > 0 {
		if !item.UnitTracked() {
			return Allocation{}, apperror.NewInvalidRequest("Item %q does not track inventory units", item.Name)
		}
		if qty == 0 {
			qty = len(pinned)
		}
		if qty != len(pinned) {
			return Allocation{}, apperror.NewInvalidRequest(
				"Quantity %d of %q does not match the %d selected units", qty, item.Name, len(pinned))
		}
	}
	if qty <= 0 {
		return Allocation{}, apperror.NewInvalidRequest("Quantity of %q must be a positive whole number", item.Name)
	}
	if err := s.checkStock(item, Pieces(qty)); err != nil {
		return Allocation{}, err
	}

	alloc := Allocation{Quantity: qty}
	if item.UnitTracked() {
		var (
			units []entity.InventoryUnit
			err   error
		)
		if len(pinned) > 0 {
			units, err = s.pinnedUnits(ctx, item, pinned)
		} else {
			units, err = s.oldestUnits(ctx, item, qty)
		}
		if err != nil {
			return Allocation{}, err
		}
		for _, u := range units {
			s.used[u.ID] = struct{}{}
			s.usedIDs = append(s.usedIDs, u.ID)
		}
		alloc.Units = units
	}

	s.claimed[item.ID] = s.claimed[item.ID].Add(Pieces(qty))
	return alloc, nil
}

func (s *Session) pinnedUnits(ctx context.Context, item entity.Item, ids []id.ID) ([]entity.InventoryUnit, error) {
	found, err := s.repo.GetUnitsForUpdate(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("lock units: %w", err)
	}
	byID := make(map[id.ID]entity.InventoryUnit, len(found))
	for _, u := range found {
		byID[u.ID] = u
	}

	units := make([]entity.InventoryUnit, 0, len(ids))
	for _, uid := range ids {
		u, ok := byID[uid]
		if !ok {
			return nil, apperror.NewInvalidRequest("Inventory unit %d not found", uid)
		}
		if u.ItemID != item.ID {
			return nil, apperror.NewInvalidRequest("Inventory unit %d does not belong to %q", uid, item.Name)
		}
		if _, dup := s.used[uid]; dup {
			return nil, apperror.NewInvalidRequest("Inventory unit %d is selected on more than one line", uid)
		}
		_, held := s.locked[uid]
		if !held && u.Status != entity.UnitAvailable {
			return nil, apperror.NewInvalidRequest("Inventory unit %d is not available for sale", uid)
		}
		units = append(units, u)
	}
	return units, nil
}

func (s *Session) oldestUnits(ctx context.Context, item entity.Item, qty int) ([]entity.InventoryUnit, error) {
	units, err := s.repo.ClaimOldestUnits(ctx, item.ID, qty, s.usedIDs)
	if err != nil {
		return nil, fmt.Errorf("claim units: %w", err)
	}
	if len(units) < qty {
		return nil, apperror.NewInsufficientInventory("Not enough tracked units for %q", item.Name).
			WithDetail("itemId", item.ID).
			WithDetail("requested", qty).
			WithDetail("available", len(units))
	}
	return units, nil
}

func (s *Session) allocateMeter(ctx context.Context, line LineRequest) (Allocation, error) {
	item := line.Item
	length := line.LengthM
	if !length.IsPositive() || !types.HasLengthPrecision(length) {
		return Allocation{}, apperror.NewInvalidRequest("Length of %q must be positive with at most 3 decimals", item.Name)
	}
	if err := s.checkStock(item, length); err != nil {
		return Allocation{}, err
	}

	var (
		roll *entity.Roll
		err  error
	)
	if line.RollID != nil {
		roll, err = s.pinnedRoll(ctx, item, *line.RollID, length)
	} else {
		roll, err = s.oldestRoll(ctx, item, length)
	}
	if err != nil {
		return Allocation{}, err
	}

	chosen := *roll
	roll.RemainingM = roll.RemainingM.Sub(length)
	s.claimed[item.ID] = s.claimed[item.ID].Add(length)
	return Allocation{Quantity: 1, Roll: &chosen}, nil
}

func (s *Session) pinnedRoll(ctx context.Context, item entity.Item, rollID id.ID, length types.Length) (*entity.Roll, error) {
	roll, ok := s.rolls[rollID]
	if !ok {
		r, err := s.repo.GetRollForUpdate(ctx, rollID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil, apperror.NewInvalidRequest("Roll %d not found", rollID)
			}
			return nil, fmt.Errorf("lock roll: %w", err)
		}
		roll = &r
	}
	if roll.ItemID != item.ID {
		return nil, apperror.NewInvalidRequest("Roll %d does not belong to %q", rollID, item.Name)
	}
	if roll.RemainingM.LessThan(length) {
		return nil, apperror.NewInsufficientInventory("Roll %d has only %s m left", rollID, roll.RemainingM.StringFixed(types.LengthPlaces)).
			WithDetail("rollId", rollID).
			WithDetail("requested", length)
	}
	s.rolls[roll.ID] = roll
	return roll, nil
}

func (s *Session) oldestRoll(ctx context.Context, item entity.Item, length types.Length) (*entity.Roll, error) {
	var (
		best    *entity.Roll
		touched []id.ID
	)
	for _, r := range s.rolls {
		if r.ItemID != item.ID {
			continue
		}
		touched = append(touched, r.ID)
		if r.RemainingM.GreaterThanOrEqual(length) && (best == nil || olderRoll(*r, *best)) {
			best = r
		}
	}

	r, ok, err := s.repo.FindRollForCut(ctx, item.ID, length, touched)
	if err != nil {
		return nil, fmt.Errorf("find roll: %w", err)
	}
	if ok && (best == nil || olderRoll(r, *best)) {
		best = &r
	}
	if best == nil {
		return nil, apperror.NewInsufficientInventory("No roll of %q has %s m left", item.Name, length.StringFixed(types.LengthPlaces)).
			WithDetail("itemId", item.ID).
			WithDetail("requested", length)
	}
	s.rolls[best.ID] = best
	return best, nil
}

func (s *Session) checkStock(item entity.Item, qty types.Length) error {
	left := item.Stock.Sub(s.claimed[item.ID])
	if left.LessThan(qty) {
		return apperror.NewInsufficientInventory("Not enough stock for %q", item.Name).
			WithDetail("itemId", item.ID).
			WithDetail("requested", qty).
			WithDetail("available", left)
	}
	return nil
}

func olderRoll(a, b entity.Roll) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID < b.ID
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func uniqueIDs(ids []id.ID) []id.ID {
	out := make([]id.ID, 0, len(ids))
	for _, v := range ids {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
