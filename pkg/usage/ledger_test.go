package usage_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/keymeter/pkg/usage"
)

func TestDayOf(t *testing.T) {
	t.Parallel()

	t.Run("uses UTC date", func(t *testing.T) {
		t.Parallel()
		loc := time.FixedZone("UTC+5", 5*60*60)
		// 02:00 local is still the previous day in UTC
		ts := time.Date(2025, 1, 2, 2, 0, 0, 0, loc)
		assert.Equal(t, usage.Day("2025-01-01"), usage.DayOf(ts))
	})

	t.Run("boundary seconds land on different days", func(t *testing.T) {
		t.Parallel()
		before := time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC)
		after := time.Date(2025, 7, 1, 0, 0, 1, 0, time.UTC)
		assert.NotEqual(t, usage.DayOf(before), usage.DayOf(after))
		assert.Equal(t, usage.DayOf(before).Next(), usage.DayOf(after))
	})
}

func TestParseDay(t *testing.T) {
	t.Parallel()

	d, err := usage.ParseDay("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, usage.Day("2024-02-29"), d)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d.Start())

	_, err = usage.ParseDay("2023-02-29")
	assert.ErrorIs(t, err, usage.ErrInvalidDay)

	_, err = usage.ParseDay("yesterday")
	assert.ErrorIs(t, err, usage.ErrInvalidDay)
}

func TestMemoryLedger_IncrementAndGet(t *testing.T) {
	t.Parallel()

	t.Run("starts at one and grows by one", func(t *testing.T) {
		t.Parallel()
		l := usage.NewMemoryLedger()
		ctx := context.Background()

		for want := int64(1); want <= 5; want++ {
			got, err := l.IncrementAndGet(ctx, "key_a", "2025-01-01")
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}

		got, err := l.Count(ctx, "key_a", "2025-01-01")
		require.NoError(t, err)
		assert.Equal(t, int64(5), got)
	})

	t.Run("keys and days are independent", func(t *testing.T) {
		t.Parallel()
		l := usage.NewMemoryLedger()
		ctx := context.Background()

		_, err := l.IncrementAndGet(ctx, "key_a", "2025-01-01")
		require.NoError(t, err)
		_, err = l.IncrementAndGet(ctx, "key_a", "2025-01-01")
		require.NoError(t, err)

		got, err := l.IncrementAndGet(ctx, "key_b", "2025-01-01")
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)

		got, err = l.IncrementAndGet(ctx, "key_a", "2025-01-02")
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)

		old, err := l.Count(ctx, "key_a", "2025-01-01")
		require.NoError(t, err)
		assert.Equal(t, int64(2), old, "previous day must be retained")
	})

	t.Run("missing counter reads as zero", func(t *testing.T) {
		t.Parallel()
		got, err := usage.NewMemoryLedger().Count(context.Background(), "key_none", "2025-01-01")
		require.NoError(t, err)
		assert.Zero(t, got)
	})

	t.Run("rejects blank input", func(t *testing.T) {
		t.Parallel()
		l := usage.NewMemoryLedger()
		_, err := l.IncrementAndGet(context.Background(), "", "2025-01-01")
		assert.ErrorIs(t, err, usage.ErrBlankKey)
		_, err = l.IncrementAndGet(context.Background(), "key_a", "")
		assert.ErrorIs(t, err, usage.ErrInvalidDay)
	})
}

func TestMemoryLedger_Concurrent(t *testing.T) {
	t.Parallel()

	l := usage.NewMemoryLedger()
	ctx := context.Background()

	const workers = 200
	results := make([]int64, workers)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			v, err := l.IncrementAndGet(ctx, "key_hot", "2025-01-01")
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = v
		}(i)
	}
	close(start)
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i] < results[j] })
	for i, v := range results {
		require.Equal(t, int64(i+1), v, "values must be exactly 1..C")
	}
}
