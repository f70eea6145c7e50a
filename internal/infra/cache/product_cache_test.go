package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain/model"
)

func newTestCache(t *testing.T) (*ProductCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log, _ := test.NewNullLogger()
	return NewProductCache(client, time.Minute, log), mr
}

func TestProductCache_SetGetInvalidate(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	var hits, misses int
	c.OnHit = func() { hits++ }
	c.OnMiss = func() { misses++ }

	_, ok := c.Get(ctx, 1)
	assert.False(t, ok)

	c.Set(ctx, model.Product{ID: 1, Name: "pen", Price: decimal.RequireFromString("1.25"), Stock: 3})
	assert.True(t, mr.Exists("product:1"))
	assert.Equal(t, time.Minute, mr.TTL("product:1"))

	got, ok := c.Get(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, "pen", got.Name)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("1.25")))

	c.Invalidate(ctx, 1)
	_, ok = c.Get(ctx, 1)
	assert.False(t, ok)

	assert.Equal(t, 1, hits)
	assert.Equal(t, 2, misses)
}

func TestProductCache_CorruptValueIsMiss(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("product:9", "{not json"))

	_, ok := c.Get(context.Background(), 9)
	assert.False(t, ok)
}

func TestProductCache_NilClientIsNoop(t *testing.T) {
	c := NewProductCache(nil, time.Minute, logrus.New())
	ctx := context.Background()

	c.Set(ctx, model.Product{ID: 1})
	c.Invalidate(ctx, 1)
	_, ok := c.Get(ctx, 1)
	assert.False(t, ok)

	var nilCache *ProductCache
	_, ok = nilCache.Get(ctx, 1)
	assert.False(t, ok)
}

func TestConnect_EmptyAddr(t *testing.T) {
	client, err := Connect(context.Background(), "", "")
	assert.NoError(t, err)
	assert.Nil(t, client)
}

func TestConnect_Miniredis(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), mr.Addr(), "")
	require.NoError(t, err)
	require.NotNil(t, client)
	_ = client.Close()
}
