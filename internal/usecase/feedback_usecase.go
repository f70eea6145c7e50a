package usecase

import (
	"context"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/validator"
)

type FeedbackUsecase struct {
	tx repo.TransactionManager
}

func NewFeedbackUsecase(tx repo.TransactionManager) *FeedbackUsecase {
	return &FeedbackUsecase{tx: tx}
}

type FeedbackInput struct {
	Rating  int
	Comment string
}

type FeedbackOutput struct {
	ID        int64       `json:"id"`
	User      UserSummary `json:"user"`
	ProductID int64       `json:"productId"`
	Rating    int         `json:"rating"`
	Comment   string      `json:"comment"`
	CreatedAt time.Time   `json:"createdAt"`
}

func (u *FeedbackUsecase) List(ctx context.Context, productID int64, page, limit int) (Page[FeedbackOutput], error) {
	if productID <= 0 {
		return Page[FeedbackOutput]{}, NewInvalid(CodeBadRequest, "invalid id")
	}
	q, err := checkPage(page, limit)
	if err != nil {
		return Page[FeedbackOutput]{}, err
	}

	var out Page[FeedbackOutput]
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Products().FindByID(ctx, productID); err != nil {
			return fromRepo(err, "Product", productID)
		}
		items, total, err := r.Feedback().ListByProductID(ctx, productID, q)
		if err != nil {
			return internal(err)
		}

		users := map[int64]UserSummary{}
		outs := make([]FeedbackOutput, 0, len(items))
		for _, f := range items {
			us, ok := users[f.UserID]
			if !ok {
				user, err := r.Users().FindByID(ctx, f.UserID)
				if err != nil {
					return fromRepo(err, "User", f.UserID)
				}
				us = toUserSummary(user)
				users[f.UserID] = us
			}
			outs = append(outs, toFeedbackOutput(f, us))
		}
		out = NewPage(outs, total, q)
		return nil
	})
	if err != nil {
		return Page[FeedbackOutput]{}, internal(err)
	}
	return out, nil
}

// Createはログイン中のユーザーとして投稿する
func (u *FeedbackUsecase) Create(ctx context.Context, p Principal, productID int64, in FeedbackInput) (FeedbackOutput, error) {
	if p.UserID <= 0 {
		return FeedbackOutput{}, NewUnauthorized(CodeUnauthorized, "Authentication required")
	}
	if productID <= 0 {
		return FeedbackOutput{}, NewInvalid(CodeBadRequest, "invalid id")
	}
	in.Comment = strings.TrimSpace(in.Comment)

	v := validator.New()
	v.Between("rating", int64(in.Rating), model.MinRating, model.MaxRating)
	v.MaxLen("comment", in.Comment, 1000)
	if !v.Empty() {
		return FeedbackOutput{}, NewValidation(v)
	}

	var out FeedbackOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		user, err := r.Users().FindByID(ctx, p.UserID)
		if err != nil {
			return fromRepo(err, "User", p.UserID)
		}
		if _, err := r.Products().FindByID(ctx, productID); err != nil {
			return fromRepo(err, "Product", productID)
		}

		f, err := r.Feedback().Create(ctx, model.Feedback{
			UserID:    user.ID,
			ProductID: productID,
			Rating:    in.Rating,
			Comment:   in.Comment,
		})
		if err != nil {
			return internal(err)
		}
		out = toFeedbackOutput(f, toUserSummary(user))
		return nil
	})
	if err != nil {
		return FeedbackOutput{}, internal(err)
	}
	return out, nil
}

// Deleteは投稿者本人か管理者
func (u *FeedbackUsecase) Delete(ctx context.Context, p Principal, id int64) error {
	if id <= 0 {
		return NewInvalid(CodeBadRequest, "invalid id")
	}
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		f, err := r.Feedback().FindByID(ctx, id)
		if err != nil {
			return fromRepo(err, "Feedback", id)
		}
		if !p.CanAccess(f.UserID) {
			return NewForbidden()
		}
		return fromRepo(r.Feedback().Delete(ctx, id), "Feedback", id)
	})
	return internal(err)
}

func toFeedbackOutput(f model.Feedback, user UserSummary) FeedbackOutput {
	return FeedbackOutput{
		ID:        f.ID,
		User:      user,
		ProductID: f.ProductID,
		Rating:    f.Rating,
		Comment:   f.Comment,
		CreatedAt: f.CreatedAt,
	}
}
