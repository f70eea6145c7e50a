package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain/model"
)

// 商品詳細のread-throughキャッシュ。
// clientがnilなら何もしない（Redisなしでも動く）。
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
	log    logrus.FieldLogger

	// ヒット/ミスの記録先（metrics）
	OnHit  func()
	OnMiss func()
}

// Connectは接続してpingまで確認する。addrが空ならnil clientを返す。
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "cache: redis ping")
	}
	return client, nil
}

func NewProductCache(client *redis.Client, ttl time.Duration, log logrus.FieldLogger) *ProductCache {
	return &ProductCache{client: client, ttl: ttl, log: log}
}

func productKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

// Getはヒットしたらtrue。壊れた値やRedis障害はミス扱い。
func (c *ProductCache) Get(ctx context.Context, id int64) (model.Product, bool) {
	if c == nil || c.client == nil {
		return model.Product{}, false
	}

	raw, err := c.client.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WithError(err).WithField("product_id", id).Warn("product cache get failed")
		}
		c.miss()
		return model.Product{}, false
	}

	var p model.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		c.miss()
		return model.Product{}, false
	}
	c.hit()
	return p, true
}

func (c *ProductCache) Set(ctx context.Context, p model.Product) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, productKey(p.ID), data, c.ttl).Err(); err != nil {
		c.log.WithError(err).WithField("product_id", p.ID).Warn("product cache set failed")
	}
}

// Invalidateは書き込み後に呼ぶ
func (c *ProductCache) Invalidate(ctx context.Context, ids ...int64) {
	if c == nil || c.client == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, productKey(id))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.WithError(err).WithField("product_ids", ids).Warn("product cache invalidate failed")
	}
}

func (c *ProductCache) hit() {
	if c.OnHit != nil {
		c.OnHit()
	}
}

func (c *ProductCache) miss() {
	if c.OnMiss != nil {
		c.OnMiss()
	}
}
