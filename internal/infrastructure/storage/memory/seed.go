package memory

import (
	"context"

	"retailcore/internal/core/entity"
	"retailcore/internal/domain/cashbox"
)

// SeedCashboxes inserts the default cashboxes and returns them by code.
func (s *Store) SeedCashboxes(ctx context.Context) (map[string]entity.Cashbox, error) {
	out := map[string]entity.Cashbox{}
	for _, cb := range cashbox.Defaults() {
		if err := s.CreateCashbox(ctx, &cb); err != nil {
			return nil, err
		}
		out[cb.Code] = cb
	}
	return out, nil
}
