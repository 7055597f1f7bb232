// Package storetest holds the behaviour every storage backend must share.
// Backend packages call RunKeyStore and RunLedger from their own tests.
package storetest

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/keymeter/pkg/keys"
	"github.com/dmitrymomot/keymeter/pkg/usage"
)

// createdAt has second precision so every backend round-trips it exactly.
var createdAt = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

// freshKey returns a key no earlier run can have used, so suites can run
// against shared databases.
func freshKey(t *testing.T) string {
	t.Helper()
	key, err := keys.GenerateKey()
	require.NoError(t, err)
	return key
}

// RunKeyStore exercises a keys.Store implementation.
func RunKeyStore(t *testing.T, store keys.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("insert and get", func(t *testing.T) {
		key := freshKey(t)
		require.NoError(t, store.Insert(ctx, keys.NewRecord(key, createdAt)))

		rec, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, key, rec.Key)
		assert.Equal(t, keys.PlanFree, rec.Plan)
		assert.True(t, rec.Active)
		assert.True(t, createdAt.Equal(rec.CreatedAt), "created_at %s != %s", rec.CreatedAt, createdAt)
	})

	t.Run("insert duplicate", func(t *testing.T) {
		key := freshKey(t)
		require.NoError(t, store.Insert(ctx, keys.NewRecord(key, createdAt)))
		assert.ErrorIs(t, store.Insert(ctx, keys.NewRecord(key, createdAt)), keys.ErrKeyExists)
	})

	t.Run("get unknown", func(t *testing.T) {
		_, err := store.Get(ctx, freshKey(t))
		assert.ErrorIs(t, err, keys.ErrNotFound)
	})

	t.Run("ensure exists", func(t *testing.T) {
		key := freshKey(t)
		require.NoError(t, store.EnsureExists(ctx, key, createdAt))
		require.NoError(t, store.EnsureExists(ctx, key, createdAt.Add(time.Hour)))

		rec, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, keys.PlanFree, rec.Plan)
		assert.True(t, rec.Active)
		assert.True(t, createdAt.Equal(rec.CreatedAt), "second call must not touch the record")
	})

	t.Run("ensure exists keeps pro plan", func(t *testing.T) {
		key := freshKey(t)
		require.NoError(t, store.UpgradeToPro(ctx, key, createdAt))
		require.NoError(t, store.EnsureExists(ctx, key, createdAt))

		rec, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, keys.PlanPro, rec.Plan)
	})

	t.Run("upgrade existing", func(t *testing.T) {
		key := freshKey(t)
		require.NoError(t, store.Insert(ctx, keys.NewRecord(key, createdAt)))
		require.NoError(t, store.UpgradeToPro(ctx, key, createdAt.Add(time.Hour)))
		require.NoError(t, store.UpgradeToPro(ctx, key, createdAt.Add(2*time.Hour)))

		rec, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, keys.PlanPro, rec.Plan)
		assert.True(t, rec.Active)
		assert.True(t, createdAt.Equal(rec.CreatedAt), "upgrade keeps the original creation time")
	})

	t.Run("upgrade unknown creates pro", func(t *testing.T) {
		key := freshKey(t)
		require.NoError(t, store.UpgradeToPro(ctx, key, createdAt))

		rec, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, keys.PlanPro, rec.Plan)
		assert.True(t, rec.Active)
	})

	t.Run("set active", func(t *testing.T) {
		key := freshKey(t)
		require.NoError(t, store.Insert(ctx, keys.NewRecord(key, createdAt)))

		require.NoError(t, store.SetActive(ctx, key, false))
		rec, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, rec.Active)

		require.NoError(t, store.UpgradeToPro(ctx, key, createdAt))
		rec, err = store.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, rec.Active, "upgrade re-activates")

		assert.ErrorIs(t, store.SetActive(ctx, freshKey(t), false), keys.ErrNotFound)
	})
}

// RunLedger exercises a usage.Ledger implementation.
func RunLedger(t *testing.T, ledger usage.Ledger) {
	t.Helper()
	ctx := context.Background()
	day := usage.Day("2025-03-14")

	t.Run("increment and get", func(t *testing.T) {
		key := freshKey(t)

		n, err := ledger.Count(ctx, key, day)
		require.NoError(t, err)
		assert.Zero(t, n)

		for want := int64(1); want <= 3; want++ {
			n, err := ledger.IncrementAndGet(ctx, key, day)
			require.NoError(t, err)
			assert.Equal(t, want, n)
		}

		n, err = ledger.Count(ctx, key, day)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("days and keys are independent", func(t *testing.T) {
		a, b := freshKey(t), freshKey(t)

		_, err := ledger.IncrementAndGet(ctx, a, day)
		require.NoError(t, err)
		_, err = ledger.IncrementAndGet(ctx, a, day)
		require.NoError(t, err)

		n, err := ledger.IncrementAndGet(ctx, a, day.Next())
		require.NoError(t, err)
		assert.Equal(t, int64(1), n, "new day starts at one")

		n, err = ledger.IncrementAndGet(ctx, b, day)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n, "other key starts at one")

		n, err = ledger.Count(ctx, a, day)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n, "previous day row is retained")
	})

	t.Run("concurrent increments", func(t *testing.T) {
		const workers = 40
		key := freshKey(t)

		var wg sync.WaitGroup
		results := make([]int64, workers)
		errs := make([]error, workers)
		for i := range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i], errs[i] = ledger.IncrementAndGet(ctx, key, day)
			}()
		}
		wg.Wait()

		for _, err := range errs {
			require.NoError(t, err)
		}
		sort.Slice(results, func(i, j int) bool { return results[i] < results[j] })
		for i, n := range results {
			assert.Equal(t, int64(i+1), n, "every caller observes a distinct count")
		}

		n, err := ledger.Count(ctx, key, day)
		require.NoError(t, err)
		assert.Equal(t, int64(workers), n)
	})
}
