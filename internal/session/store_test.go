package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, ttl), mr
}

func TestPutGetRoundTrip(t *testing.T) {
	store, _ := newTestStore(t, 30*time.Minute)
	ctx := context.Background()

	record := &Record{AccountID: 3, HolderID: 7, AccountNumber: "12345678901234"}
	require.NoError(t, store.Put(ctx, "sess-1", record))

	got, ok := store.Get(ctx, "sess-1")
	require.True(t, ok)
	assert.Equal(t, record, got)
}

func TestGetUnknownSession(t *testing.T) {
	store, _ := newTestStore(t, 30*time.Minute)

	_, ok := store.Get(context.Background(), "nope")
	assert.False(t, ok)
}

func TestRevokeEndsSession(t *testing.T) {
	store, _ := newTestStore(t, 30*time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sess-1", &Record{AccountID: 3}))
	require.NoError(t, store.Revoke(ctx, "sess-1"))

	_, ok := store.Get(ctx, "sess-1")
	assert.False(t, ok)
}

func TestSessionsExpire(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sess-1", &Record{AccountID: 3}))

	mr.FastForward(2 * time.Minute)

	_, ok := store.Get(ctx, "sess-1")
	assert.False(t, ok)
}

func TestGetIgnoresUndecodableRecord(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	mr.Set("session:bad", "not-json")

	_, ok := store.Get(context.Background(), "bad")
	assert.False(t, ok)
}
