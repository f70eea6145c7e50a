package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TopicOrderPlaced        = "order.placed"
	TopicOrderStatusChanged = "order.status_changed"
)

type OrderPlacedItem struct {
	ProductID int64           `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type OrderPlaced struct {
	OrderID   int64             `json:"order_id"`
	UserID    int64             `json:"user_id"`
	Total     decimal.Decimal   `json:"total"`
	Items     []OrderPlacedItem `json:"items"`
	CreatedAt time.Time         `json:"created_at"`
}

type OrderStatusChanged struct {
	OrderID   int64     `json:"order_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ChangedBy int64     `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}

// Publisherはコミット後のイベント通知の約束
type Publisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
	Close() error
}

// NopPublisherはブローカー未設定時に使う
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, any) error { return nil }
func (NopPublisher) Close() error                                       { return nil }
