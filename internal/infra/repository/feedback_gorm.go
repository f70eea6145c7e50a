package repository

import (
	"context"

	"gorm.io/gorm"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type FeedbackGormRepository struct {
	db *gorm.DB
}

func NewFeedbackGormRepository(db *gorm.DB) *FeedbackGormRepository {
	return &FeedbackGormRepository{db: db}
}

func (r *FeedbackGormRepository) ListByProductID(ctx context.Context, productID int64, q repo.PageQuery) ([]model.Feedback, int64, error) {
	tx := r.db.WithContext(ctx).Model(&model.Feedback{}).Where("product_id = ?", productID)

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return []model.Feedback{}, 0, translate(err, "feedback: count")
	}

	var items []model.Feedback
	if err := tx.Order("id asc").Limit(q.Limit).Offset(q.Offset()).Find(&items).Error; err != nil {
		return []model.Feedback{}, 0, translate(err, "feedback: list")
	}
	return items, total, nil
}

func (r *FeedbackGormRepository) FindByID(ctx context.Context, id int64) (model.Feedback, error) {
	var f model.Feedback
	if err := r.db.WithContext(ctx).First(&f, id).Error; err != nil {
		return model.Feedback{}, translate(err, "feedback: find")
	}
	return f, nil
}

func (r *FeedbackGormRepository) Create(ctx context.Context, f model.Feedback) (model.Feedback, error) {
	if err := r.db.WithContext(ctx).Create(&f).Error; err != nil {
		return model.Feedback{}, translate(err, "feedback: create")
	}
	return f, nil
}

func (r *FeedbackGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Feedback{}, id)
	if res.Error != nil {
		return translate(res.Error, "feedback: delete")
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// ユーザー削除時にまとめて消す
func (r *FeedbackGormRepository) DeleteByUserID(ctx context.Context, userID int64) error {
	return translate(
		r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Feedback{}).Error,
		"feedback: delete by user",
	)
}
