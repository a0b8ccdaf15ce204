package session

import (
	"context"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"order-intake-service/internal/entity"
	"testing"
	"time"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestRedisStore_Lifecycle(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()
	s := NewRedisStore(rdb, time.Hour)

	id, err := s.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL("cart:"+id))

	items, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, s.Save(ctx, id, []entity.LineItem{{
		Product:   "Filtro de aceite",
		Quantity:  4,
		UnitPrice: decimal.RequireFromString("4.50"),
		Subtotal:  decimal.RequireFromString("18.00"),
	}}))

	items, err = s.Load(ctx, id)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Filtro de aceite", items[0].Product)
	assert.Equal(t, 4, items[0].Quantity)
	assert.True(t, decimal.RequireFromString("18").Equal(items[0].Subtotal))

	require.NoError(t, s.Save(ctx, id, nil))
	raw, err := mr.Get("cart:" + id)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)

	require.NoError(t, s.Delete(ctx, id))
	assert.False(t, mr.Exists("cart:"+id))
	_, err = s.Load(ctx, id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStore_SaveMissingSession(t *testing.T) {
	mr, rdb := newRedis(t)
	s := NewRedisStore(rdb, time.Hour)

	err := s.Save(context.Background(), "gone", []entity.LineItem{{Product: "Filtro de aceite", Quantity: 1}})
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.False(t, mr.Exists("cart:gone"))
}

func TestRedisStore_SlidingExpiry(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()
	s := NewRedisStore(rdb, time.Hour)

	id, err := s.Create(ctx)
	require.NoError(t, err)

	mr.FastForward(40 * time.Minute)
	_, err = s.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL("cart:"+id))

	mr.FastForward(61 * time.Minute)
	_, err = s.Load(ctx, id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStore_CorruptValue(t *testing.T) {
	mr, rdb := newRedis(t)
	require.NoError(t, mr.Set("cart:bad", "not json"))

	_, err := NewRedisStore(rdb, time.Hour).Load(context.Background(), "bad")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisIdempotency(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()
	g := NewRedisIdempotency(rdb, 24*time.Hour)

	ok, err := g.Claim(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 24*time.Hour, mr.TTL("idempotent-key:k"))

	ok, err = g.Claim(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, g.Release(ctx, "k"))
	ok, err = g.Claim(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(25 * time.Hour)
	ok, err = g.Claim(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}
