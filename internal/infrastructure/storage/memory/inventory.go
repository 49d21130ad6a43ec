package memory

import (
	"context"
	"fmt"
	"slices"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
	"retailcore/internal/domain/inventory"
)

var _ inventory.Repository = (*Store)(nil)

// --- Items ---

func (s *Store) GetItem(ctx context.Context, itemID id.ID) (entity.Item, error) {
	defer s.lock(ctx)()
	item, ok := s.st.items[itemID]
	if !ok {
		return entity.Item{}, apperror.NewNotFound("item", itemID)
	}
	return item, nil
}

func (s *Store) GetItems(ctx context.Context, ids []id.ID) (map[id.ID]entity.Item, error) {
	defer s.lock(ctx)()
	out := make(map[id.ID]entity.Item, len(ids))
	for _, itemID := range ids {
		if item, ok := s.st.items[itemID]; ok {
			out[itemID] = item
		}
	}
	return out, nil
}

func (s *Store) CreateItem(ctx context.Context, item *entity.Item) error {
	defer s.lock(ctx)()
	item.ID = s.nextID()
	item.CreatedAt = s.now()
	s.st.items[item.ID] = *item
	return nil
}

func (s *Store) AddItemStock(ctx context.Context, itemID id.ID, delta types.Length) (bool, error) {
	defer s.lock(ctx)()
	item, ok := s.st.items[itemID]
	if !ok {
		return false, nil
	}
	next := item.Stock.Add(delta)
	if next.IsNegative() {
		return false, nil
	}
	item.Stock = next
	s.st.items[itemID] = item
	return true, nil
}

// --- Rolls ---

func (s *Store) GetRoll(ctx context.Context, rollID id.ID) (entity.Roll, error) {
	defer s.lock(ctx)()
	roll, ok := s.st.rolls[rollID]
	if !ok {
		return entity.Roll{}, apperror.NewNotFound("roll", rollID)
	}
	return roll, nil
}

func (s *Store) GetRollForUpdate(ctx context.Context, rollID id.ID) (entity.Roll, error) {
	return s.GetRoll(ctx, rollID)
}

func (s *Store) FindRollForCut(ctx context.Context, itemID id.ID, minRemaining types.Length, exclude []id.ID) (entity.Roll, bool, error) {
	defer s.lock(ctx)()
	skip := idSet(exclude)
	rolls := sortedValues(s.st.rolls,
		func(r entity.Roll) bool {
			_, excluded := skip[r.ID]
			return r.ItemID == itemID && !excluded && r.RemainingM.GreaterThanOrEqual(minRemaining)
		},
		func(a, b entity.Roll) bool { return olderFirst(a.CreatedAt, a.ID, b.CreatedAt, b.ID) },
	)
	if len(rolls) == 0 {
		return entity.Roll{}, false, nil
	}
	return rolls[0], true, nil
}

func (s *Store) ListRolls(ctx context.Context, itemID id.ID) ([]entity.Roll, error) {
	defer s.lock(ctx)()
	return sortedValues(s.st.rolls,
		func(r entity.Roll) bool { return r.ItemID == itemID },
		func(a, b entity.Roll) bool { return olderFirst(a.CreatedAt, a.ID, b.CreatedAt, b.ID) },
	), nil
}

func (s *Store) CreateRoll(ctx context.Context, roll *entity.Roll) error {
	defer s.lock(ctx)()
	if roll.RemainingM.IsNegative() || roll.RemainingM.GreaterThan(roll.LengthM) {
		return fmt.Errorf("roll remaining %s out of range [0, %s]", roll.RemainingM, roll.LengthM)
	}
	roll.ID = s.nextID()
	roll.CreatedAt = s.now()
	s.st.rolls[roll.ID] = *roll
	return nil
}

func (s *Store) AddRollRemaining(ctx context.Context, rollID id.ID, delta types.Length) (bool, error) {
	defer s.lock(ctx)()
	roll, ok := s.st.rolls[rollID]
	if !ok {
		return false, nil
	}
	next := roll.RemainingM.Add(delta)
	if next.IsNegative() || next.GreaterThan(roll.LengthM) {
		return false, nil
	}
	roll.RemainingM = next
	s.st.rolls[rollID] = roll
	return true, nil
}

func (s *Store) DeleteRoll(ctx context.Context, rollID id.ID) error {
	defer s.lock(ctx)()
	if _, ok := s.st.rolls[rollID]; !ok {
		return apperror.NewNotFound("roll", rollID)
	}
	delete(s.st.rolls, rollID)
	return nil
}

func (s *Store) RollHasSales(ctx context.Context, rollID id.ID) (bool, error) {
	defer s.lock(ctx)()
	for _, l := range s.st.saleLines {
		if l.RollID != nil && *l.RollID == rollID {
			return true, nil
		}
	}
	return false, nil
}

// --- Units ---

func (s *Store) GetUnit(ctx context.Context, unitID id.ID) (entity.InventoryUnit, error) {
	defer s.lock(ctx)()
	u, ok := s.st.units[unitID]
	if !ok {
		return entity.InventoryUnit{}, apperror.NewNotFound("inventory unit", unitID)
	}
	return u, nil
}

func (s *Store) GetUnits(ctx context.Context, ids []id.ID) ([]entity.InventoryUnit, error) {
	defer s.lock(ctx)()
	out := make([]entity.InventoryUnit, 0, len(ids))
	for _, unitID := range ids {
		if u, ok := s.st.units[unitID]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Store) GetUnitForUpdate(ctx context.Context, unitID id.ID) (entity.InventoryUnit, error) {
	return s.GetUnit(ctx, unitID)
}

func (s *Store) GetUnitsForUpdate(ctx context.Context, ids []id.ID) ([]entity.InventoryUnit, error) {
	return s.GetUnits(ctx, ids)
}

func (s *Store) ClaimOldestUnits(ctx context.Context, itemID id.ID, limit int, exclude []id.ID) ([]entity.InventoryUnit, error) {
	defer s.lock(ctx)()
	skip := idSet(exclude)
	units := sortedValues(s.st.units,
		func(u entity.InventoryUnit) bool {
			_, excluded := skip[u.ID]
			return u.ItemID == itemID && u.Status == entity.UnitAvailable && !excluded
		},
		func(a, b entity.InventoryUnit) bool { return olderFirst(a.CreatedAt, a.ID, b.CreatedAt, b.ID) },
	)
	if len(units) > limit {
		units = units[:limit]
	}
	return units, nil
}

func (s *Store) CreateUnits(ctx context.Context, units []*entity.InventoryUnit) error {
	defer s.lock(ctx)()
	taken := map[string]struct{}{}
	for _, u := range s.st.units {
		if u.Barcode != nil {
			taken[*u.Barcode] = struct{}{}
		}
	}
	for _, u := range units {
		if u.Barcode == nil {
			continue
		}
		if _, dup := taken[*u.Barcode]; dup {
			return fmt.Errorf("duplicate barcode %q", *u.Barcode)
		}
		taken[*u.Barcode] = struct{}{}
	}

	now := s.now()
	for _, u := range units {
		u.ID = s.nextID()
		u.CreatedAt = now
		s.st.units[u.ID] = *u
	}
	return nil
}

func (s *Store) SetUnitStatus(ctx context.Context, ids []id.ID, status entity.UnitStatus) error {
	defer s.lock(ctx)()
	for _, unitID := range ids {
		u, ok := s.st.units[unitID]
		if !ok {
			return apperror.NewNotFound("inventory unit", unitID)
		}
		u.Status = status
		s.st.units[unitID] = u
	}
	return nil
}

func (s *Store) ExistingBarcodes(ctx context.Context, barcodes []string) ([]string, error) {
	defer s.lock(ctx)()
	var out []string
	for _, u := range s.st.units {
		if u.Barcode != nil && slices.Contains(barcodes, *u.Barcode) && !slices.Contains(out, *u.Barcode) {
			out = append(out, *u.Barcode)
		}
	}
	slices.Sort(out)
	return out, nil
}

func (s *Store) LatestReturns(ctx context.Context, unitIDs []id.ID) (map[id.ID]entity.InventoryReturn, error) {
	defer s.lock(ctx)()
	want := idSet(unitIDs)
	out := map[id.ID]entity.InventoryReturn{}
	for _, r := range s.st.returns {
		if _, ok := want[r.UnitID]; !ok {
			continue
		}
		if cur, ok := out[r.UnitID]; !ok || olderFirst(cur.CreatedAt, cur.ID, r.CreatedAt, r.ID) {
			out[r.UnitID] = r
		}
	}
	return out, nil
}
