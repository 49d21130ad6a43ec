// Package memory is an in-process implementation of every repository
// interface of the domain packages. Transactions are serialized by a single
// mutex and roll back by restoring a snapshot of the whole state.
package memory

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/tx"
	"retailcore/pkg/numerator"
)

var _ tx.Manager = (*Store)(nil)

// AuditRecord is one stored audit snapshot.
type AuditRecord struct {
	EntityType string
	EntityID   id.ID
	Action     string
	UserID     id.ID
	Snapshot   any
	CreatedAt  time.Time
}

type state struct {
	lastID id.ID

	items     map[id.ID]entity.Item
	rolls     map[id.ID]entity.Roll
	units     map[id.ID]entity.InventoryUnit
	customers map[id.ID]entity.Customer
	suppliers map[id.ID]entity.Supplier

	sales        map[id.ID]entity.Sale
	saleLines    map[id.ID]entity.SaleLine
	restocks     map[id.ID]entity.Restock
	restockLines map[id.ID]entity.RestockLine

	payments  map[id.ID]entity.Payment
	cashboxes map[id.ID]entity.Cashbox
	entries   map[id.ID]entity.CashboxEntry
	returns   map[id.ID]entity.InventoryReturn

	sequences map[string]int64
	audit     []AuditRecord
}

func newState() *state {
	return &state{
		items:        map[id.ID]entity.Item{},
		rolls:        map[id.ID]entity.Roll{},
		units:        map[id.ID]entity.InventoryUnit{},
		customers:    map[id.ID]entity.Customer{},
		suppliers:    map[id.ID]entity.Supplier{},
		sales:        map[id.ID]entity.Sale{},
		saleLines:    map[id.ID]entity.SaleLine{},
		restocks:     map[id.ID]entity.Restock{},
		restockLines: map[id.ID]entity.RestockLine{},
		payments:     map[id.ID]entity.Payment{},
		cashboxes:    map[id.ID]entity.Cashbox{},
		entries:      map[id.ID]entity.CashboxEntry{},
		returns:      map[id.ID]entity.InventoryReturn{},
		sequences:    map[string]int64{},
	}
}

// clone copies every table. Stored values are never mutated in place, so
// copying the maps is enough.
func (st *state) clone() *state {
	return &state{
		lastID:       st.lastID,
		items:        maps.Clone(st.items),
		rolls:        maps.Clone(st.rolls),
		units:        maps.Clone(st.units),
		customers:    maps.Clone(st.customers),
		suppliers:    maps.Clone(st.suppliers),
		sales:        maps.Clone(st.sales),
		saleLines:    maps.Clone(st.saleLines),
		restocks:     maps.Clone(st.restocks),
		restockLines: maps.Clone(st.restockLines),
		payments:     maps.Clone(st.payments),
		cashboxes:    maps.Clone(st.cashboxes),
		entries:      maps.Clone(st.entries),
		returns:      maps.Clone(st.returns),
		sequences:    maps.Clone(st.sequences),
		audit:        append([]AuditRecord(nil), st.audit...),
	}
}

// Store holds all tables in memory.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{st: newState(), now: time.Now}
}

// SetClock overrides the time source used for created_at columns.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// RunInTransaction runs fn holding the store lock. Nested calls join the
// outer transaction. Any error or panic restores the state fn started with.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	snapshot := s.st.clone()
	committed := false
	defer func() {
		if !committed {
			s.st = snapshot
		}
		s.mu.Unlock()
	}()

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		return err
	}
	committed = true
	return nil
}

// lock takes the store lock for a single statement outside a transaction.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) nextID() id.ID {
	s.st.lastID++
	return s.st.lastID
}

// Next issues PREFIX-YEAR-NNNNNN numbers, sequential per prefix and year.
func (s *Store) Next(ctx context.Context, prefix string, at time.Time) (string, error) {
	defer s.lock(ctx)()
	key := prefix + "_" + at.Format("2006")
	s.st.sequences[key]++
	return numerator.Format(prefix, at.Year(), s.st.sequences[key]), nil
}

// Record stores an audit snapshot.
func (s *Store) Record(ctx context.Context, entityType string, entityID id.ID, action string, userID id.ID, snapshot any) error {
	defer s.lock(ctx)()
	s.st.audit = append(s.st.audit, AuditRecord{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		UserID:     userID,
		Snapshot:   snapshot,
		CreatedAt:  s.now(),
	})
	return nil
}

// AuditTrail returns the stored snapshots of an entity, oldest first.
func (s *Store) AuditTrail(entityType string, entityID id.ID) []AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []AuditRecord
	for _, r := range s.st.audit {
		if r.EntityType == entityType && r.EntityID == entityID {
			out = append(out, r)
		}
	}
	return out
}

// sortedValues returns the map values ordered by less.
func sortedValues[T any](m map[id.ID]T, keep func(T) bool, less func(a, b T) bool) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func olderFirst(aAt time.Time, aID id.ID, bAt time.Time, bID id.ID) bool {
	if !aAt.Equal(bAt) {
		return aAt.Before(bAt)
	}
	return aID < bID
}

func idSet(ids []id.ID) map[id.ID]struct{} {
	set := make(map[id.ID]struct{}, len(ids))
	for _, v := range ids {
		set[v] = struct{}{}
	}
	return set
}
