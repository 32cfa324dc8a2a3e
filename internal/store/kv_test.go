package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/ifrit/internal/db"
)

func TestKV(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a := KV{DB: database, Namespace: UserNamespace(1)}
	b := KV{DB: database, Namespace: UserNamespace(2)}

	_, ok, err := a.Get(ctx, "items")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, a.Set(ctx, "items", "[]"))
	require.NoError(t, a.Set(ctx, "items", `[{"id":1}]`))
	require.NoError(t, a.Set(ctx, "flag", "1"))

	v, ok, err := a.Get(ctx, "items")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":1}]`, v)

	// Namespaces are isolated.
	_, ok, _ = b.Get(ctx, "items")
	assert.False(t, ok)

	keys, err := a.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"flag", "items"}, keys)

	require.NoError(t, a.Delete(ctx, "flag"))
	require.NoError(t, a.Delete(ctx, "flag"))
	keys, _ = a.Keys(ctx)
	assert.Equal(t, []string{"items"}, keys)
}
