package numerator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates sys_sequences keyed by (sequence_type, year).
type mockQuerier struct {
	mu     sync.Mutex
	values map[string]int64
	err    error
}

func (m *mockQuerier) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return &mockRow{err: m.err}
	}
	if m.values == nil {
		m.values = map[string]int64{}
	}
	key := args[0].(string) + "_" + time.Date(args[1].(int), 1, 1, 0, 0, 0, 0, time.UTC).Format("2006")
	m.values[key]++
	return &mockRow{val: m.values[key]}
}

func newService(q Querier, cfg Config) *Service {
	return New(func(context.Context) Querier { return q }, cfg)
}

func TestNext_SequentialPerPrefixAndYear(t *testing.T) {
	q := &mockQuerier{}
	svc := newService(q, DefaultConfig())
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	first, err := svc.Next(ctx, "S", at)
	require.NoError(t, err)
	assert.Equal(t, "S-2026-000001", first)

	second, err := svc.Next(ctx, "S", at)
	require.NoError(t, err)
	assert.Equal(t, "S-2026-000002", second)

	restock, err := svc.Next(ctx, "R", at)
	require.NoError(t, err)
	assert.Equal(t, "R-2026-000001", restock)

	nextYear, err := svc.Next(ctx, "S", at.AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, "S-2027-000001", nextYear)
}

func TestNext_Concurrent(t *testing.T) {
	q := &mockQuerier{}
	svc := newService(q, DefaultConfig())
	ctx := context.Background()
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	const n = 50
	results := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, err := svc.Next(ctx, "S", at)
			assert.NoError(t, err)
			results <- num
		}()
	}
	wg.Wait()
	close(results)

	seen := map[string]bool{}
	for num := range results {
		assert.False(t, seen[num], "duplicate number %s", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
}

func TestNext_QueryError(t *testing.T) {
	svc := newService(&mockQuerier{err: errors.New("boom")}, DefaultConfig())
	_, err := svc.Next(context.Background(), "S", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "next S number")
}

func TestNext_NeverReset(t *testing.T) {
	svc := newService(&mockQuerier{}, Config{ResetPeriod: "never", PadWidth: 4})
	num, err := svc.Next(context.Background(), "R", time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "R-0001", num)
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"S-2026-000042", 42},
		{"R-0007", 7},
		{"garbage", -1},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseNumber(tt.in))
		})
	}
}
