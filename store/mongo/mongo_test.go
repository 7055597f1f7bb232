package mongo_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	mongoutil "github.com/dmitrymomot/keymeter/pkg/mongo"
	"github.com/dmitrymomot/keymeter/store/mongo"
	"github.com/dmitrymomot/keymeter/store/storetest"
)

func openStore(t *testing.T) *mongo.Store {
	t.Helper()
	url := os.Getenv("TEST_MONGODB_URL")
	if url == "" {
		t.Skip("TEST_MONGODB_URL not set")
	}

	s, err := mongo.Open(context.Background(), mongoutil.Config{
		ConnectionURL:  url,
		Database:       "keymeter_test",
		ConnectTimeout: 5 * time.Second,
		MaxPoolSize:    50,
		RetryWrites:    true,
		RetryReads:     true,
		RetryAttempts:  1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestStore_KeyStore(t *testing.T) {
	storetest.RunKeyStore(t, openStore(t))
}

func TestStore_Ledger(t *testing.T) {
	storetest.RunLedger(t, openStore(t))
}
