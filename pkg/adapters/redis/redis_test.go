package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/arbor/pkg/adapters/redis"
	"github.com/aretw0/arbor/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ports.SourceStore = (*redis.SourceStore)(nil)
	_ ports.Locker      = (*redis.Locker)(nil)
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisSourceStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunSourceStoreContract(t, redis.NewFromClient(client))
}

func TestRedisSourceStore_Prefix(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	require.NoError(t, store.Summon(ctx, "nuwa", "prototypes/nuwa.yaml"))

	assert.True(t, mr.Exists("custom:app:sources"), "sources hash lives under the custom prefix")
	assert.Equal(t, "prototypes/nuwa.yaml", mr.HGet("custom:app:sources", "nuwa"))
}

func TestRedisSourceStore_SharedAcrossClients(t *testing.T) {
	mr, client := newClient(t)
	ctx := context.Background()

	writer := redis.NewFromClient(client)
	reader := redis.New(mr.Addr(), "", 0)
	defer reader.Close()

	require.NoError(t, writer.Summon(ctx, "sean", "prototypes/sean.json"))

	sources, err := reader.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"sean": "prototypes/sean.json"}, sources)
}

func TestRedisSourceStore_RejectsEmptyID(t *testing.T) {
	_, client := newClient(t)
	assert.Error(t, redis.NewFromClient(client).Summon(context.Background(), "", "x.yaml"))
}

func TestRedisLocker_LockUnlock(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, redis.WithPrefix("test:"))
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "graph", 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, unlock)
	assert.True(t, mr.Exists("test:lock:graph"), "lock key should be set in Redis")

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:graph"), "lock key should be removed after unlock")
}

func TestRedisLocker_Contention(t *testing.T) {
	mr, client := newClient(t)
	first := redis.NewLocker(client, redis.WithPrefix("test:"))
	second := redis.NewLocker(client, redis.WithPrefix("test:"))
	ctx := context.Background()

	unlock1, err := first.Lock(ctx, "graph", 5*time.Second)
	require.NoError(t, err)

	timeoutCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = second.Lock(timeoutCtx, "graph", 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.WithinDuration(t, start.Add(300*time.Millisecond), time.Now(), 150*time.Millisecond, "should block until timeout")

	require.NoError(t, unlock1(ctx))

	unlock2, err := second.Lock(ctx, "graph", 5*time.Second)
	require.NoError(t, err)
	defer unlock2(ctx)
	assert.True(t, mr.Exists("test:lock:graph"))
}

func TestRedisLocker_StaleUnlockKeepsNewOwner(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client)
	ctx := context.Background()

	unlock1, err := locker.Lock(ctx, "graph", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	unlock2, err := locker.Lock(ctx, "graph", 5*time.Second)
	require.NoError(t, err)

	require.NoError(t, unlock1(ctx), "releasing an expired lock is harmless")
	assert.True(t, mr.Exists("arbor:lock:graph"), "the new owner still holds the lock")

	require.NoError(t, unlock2(ctx))
	assert.False(t, mr.Exists("arbor:lock:graph"))
}
