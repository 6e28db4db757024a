package infra_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Vovarama1992/vidcatalog/internal/infra"
	"github.com/Vovarama1992/vidcatalog/internal/keys"
	"github.com/Vovarama1992/vidcatalog/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_Contract(t *testing.T) {
	store, err := infra.NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	runStoreContract(t, store)
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")

	store, err := infra.NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	_, err = store.InsertChannel(ctx, &models.Channel{ID: "c1", Name: "One", Owner: "alice"})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// schema statements are idempotent
	store, err = infra.NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.GetChannel(ctx, keys.Channel("c1"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Owner)
}
