package usecase_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"
)

func TestFeedbackCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.seedUser(t, "alice@example.com", model.RoleCustomer)
	p := f.seedProduct(t, "pen", "1.00", 1)
	uc := usecase.NewFeedbackUsecase(f.txm)

	out, err := uc.Create(ctx, principal(u), p.ID, usecase.FeedbackInput{Rating: 5, Comment: " great "})
	require.NoError(t, err)
	assert.Equal(t, 5, out.Rating)
	assert.Equal(t, "great", out.Comment)
	assert.Equal(t, u.ID, out.User.ID)
	assert.Equal(t, p.ID, out.ProductID)
}

func TestFeedbackCreate_Rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.seedUser(t, "alice@example.com", model.RoleCustomer)
	p := f.seedProduct(t, "pen", "1.00", 1)
	uc := usecase.NewFeedbackUsecase(f.txm)

	for _, rating := range []int{0, 6, -1} {
		_, err := uc.Create(ctx, principal(u), p.ID, usecase.FeedbackInput{Rating: rating})
		ae := requireCode(t, err, usecase.CodeValidation)
		assert.Contains(t, ae.Details, "rating")
	}

	_, err := uc.Create(ctx, principal(u), p.ID, usecase.FeedbackInput{Rating: 3, Comment: strings.Repeat("x", 1001)})
	requireCode(t, err, usecase.CodeValidation)

	_, err = uc.Create(ctx, principal(u), 999, usecase.FeedbackInput{Rating: 3})
	requireCode(t, err, usecase.CodeNotFound)

	_, err = uc.Create(ctx, usecase.Principal{UserID: 999, Role: model.RoleCustomer}, p.ID, usecase.FeedbackInput{Rating: 3})
	requireCode(t, err, usecase.CodeNotFound)

	assert.Zero(t, f.count(t, &model.Feedback{}))
}

func TestFeedbackListAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.seedUser(t, "admin@example.com", model.RoleAdmin)
	u := f.seedUser(t, "alice@example.com", model.RoleCustomer)
	p := f.seedProduct(t, "pen", "1.00", 1)
	other := f.seedProduct(t, "ink", "1.00", 1)
	uc := usecase.NewFeedbackUsecase(f.txm)

	var ids []int64
	for i := 1; i <= 3; i++ {
		out, err := uc.Create(ctx, principal(u), p.ID, usecase.FeedbackInput{Rating: i})
		require.NoError(t, err)
		ids = append(ids, out.ID)
	}
	_, err := uc.Create(ctx, principal(u), other.ID, usecase.FeedbackInput{Rating: 1})
	require.NoError(t, err)

	page, err := uc.List(ctx, p.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Content, 2)
	assert.Equal(t, "alice@example.com", page.Content[0].User.Email)

	require.NoError(t, uc.Delete(ctx, principal(admin), ids[0]))
	requireCode(t, uc.Delete(ctx, principal(admin), ids[0]), usecase.CodeNotFound)

	page, err = uc.List(ctx, p.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalElements)

	_, err = uc.List(ctx, 999, 1, 10)
	requireCode(t, err, usecase.CodeNotFound)
}
