package formstate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	pkgredis "github.com/jdforge/core/internal/pkg/redis"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := pkgredis.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	return NewStore(rc, ttl), mr
}

func TestSaveOverwritesInsteadOfMerging(t *testing.T) {
	store, _ := newStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sess", Values{JobTitle: "Backend Engineer", Notes: "remote first"}))
	require.NoError(t, store.Save(ctx, "sess", Values{JobTitle: "Data Engineer"}))

	got, err := store.Load(ctx, "sess")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Data Engineer", got.JobTitle)
	assert.Empty(t, got.Notes)
	assert.False(t, got.SavedAt.IsZero())
}

func TestLoadMissing(t *testing.T) {
	store, _ := newStore(t, time.Hour)

	got, err := store.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestValuesExpireWithTTL(t *testing.T) {
	store, mr := newStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sess", Values{JobTitle: "SRE"}))
	mr.FastForward(2 * time.Minute)

	got, err := store.Load(ctx, "sess")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestClear(t *testing.T) {
	store, mr := newStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sess", Values{JobTitle: "SRE"}))
	require.NoError(t, store.Clear(ctx, "sess"))
	assert.False(t, mr.Exists(keyPrefix+"sess"))
}

func TestSaveRequiresSession(t *testing.T) {
	store, _ := newStore(t, time.Hour)
	assert.Error(t, store.Save(context.Background(), "", Values{}))
}
