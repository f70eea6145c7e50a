package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type FeedbackRepository interface {
	ListByProductID(ctx context.Context, productID int64, q PageQuery) ([]model.Feedback, int64, error)
	FindByID(ctx context.Context, id int64) (model.Feedback, error)
	Create(ctx context.Context, f model.Feedback) (model.Feedback, error)
	Delete(ctx context.Context, id int64) error
	DeleteByUserID(ctx context.Context, userID int64) error
}
