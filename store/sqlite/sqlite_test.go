package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/keymeter/pkg/keys"
	"github.com/dmitrymomot/keymeter/pkg/usage"
	"github.com/dmitrymomot/keymeter/store/sqlite"
	"github.com/dmitrymomot/keymeter/store/storetest"
)

func openStore(t *testing.T, path string) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(context.Background(), sqlite.Config{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestStore_KeyStore(t *testing.T) {
	storetest.RunKeyStore(t, openStore(t, filepath.Join(t.TempDir(), "keys.db")))
}

func TestStore_Ledger(t *testing.T) {
	storetest.RunLedger(t, openStore(t, filepath.Join(t.TempDir(), "usage.db")))
}

func TestStore_InMemory(t *testing.T) {
	s := openStore(t, ":memory:")
	require.NoError(t, s.Ping(context.Background()))

	n, err := s.IncrementAndGet(context.Background(), "key_mem", "2025-01-01")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStore_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "durable.db")
	day := usage.Day("2025-06-01")

	first, err := sqlite.Open(ctx, sqlite.Config{Path: path})
	require.NoError(t, err)
	require.NoError(t, first.UpgradeToPro(ctx, "key_durable", time.Now()))
	for range 3 {
		_, err := first.IncrementAndGet(ctx, "key_durable", day)
		require.NoError(t, err)
	}
	require.NoError(t, first.Close(ctx))

	second := openStore(t, path)
	rec, err := second.Get(ctx, "key_durable")
	require.NoError(t, err)
	assert.Equal(t, keys.PlanPro, rec.Plan)

	n, err := second.IncrementAndGet(ctx, "key_durable", day)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestStore_LegacyRows(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "legacy.db")

	s := openStore(t, path)

	raw, err := sql.Open("sqlite", "file:"+path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	_, err = raw.ExecContext(ctx,
		`INSERT INTO api_keys (api_key, plan, is_active, created_at) VALUES ('key_legacy', '', 1, '')`)
	require.NoError(t, err)

	rec, err := s.Get(ctx, "key_legacy")
	require.NoError(t, err)
	assert.Equal(t, keys.PlanFree, rec.Plan)
	assert.True(t, rec.CreatedAt.IsZero())
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := sqlite.Open(context.Background(), sqlite.Config{})
	assert.ErrorIs(t, err, sqlite.ErrEmptyPath)
}
