package usecase

import (
	"context"
	"io"

	"storefront/internal/domain/model"
)

// 商品キャッシュ（Redis）
type ProductCache interface {
	Get(ctx context.Context, id int64) (model.Product, bool)
	Set(ctx context.Context, p model.Product)
	Invalidate(ctx context.Context, ids ...int64)
}

// コミット後のイベント通知（Kafka）
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
}

// 注文まわりの計測（Prometheus）
type OrderRecorder interface {
	OrderPlaced()
	OrderRejected(reason string)
	OrderStatusUpdated(status string)
}

type nopCache struct{}

func (nopCache) Get(context.Context, int64) (model.Product, bool) { return model.Product{}, false }
func (nopCache) Set(context.Context, model.Product)               {}
func (nopCache) Invalidate(context.Context, ...int64)             {}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, string, any) error { return nil }

type nopRecorder struct{}

func (nopRecorder) OrderPlaced()              {}
func (nopRecorder) OrderRejected(string)      {}
func (nopRecorder) OrderStatusUpdated(string) {}

// 画像の保存先（ローカル/S3）
type ImageStore interface {
	Put(ctx context.Context, path string, r io.Reader, contentType string) error
	Delete(ctx context.Context, path string) error
	URL(path string) string
}
