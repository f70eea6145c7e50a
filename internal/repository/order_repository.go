package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type OrderListFilter struct {
	PageQuery
	Status *model.OrderStatus
	UserID *int64
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	// id昇順（作成順）で返す
	List(ctx context.Context, f OrderListFilter) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (model.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
	Delete(ctx context.Context, orderID int64) error
	CountByUserID(ctx context.Context, userID int64) (int64, error)
}
