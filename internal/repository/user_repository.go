package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 一覧の絞り込み条件
type UserListFilter struct {
	PageQuery
	Role *model.Role
}

// 保存・取得を約束
type UserRepository interface {
	// 新規ユーザー作成（email重複はErrDuplicate）
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, f UserListFilter) ([]model.User, int64, error)
	// ユーザー情報の更新（email重複はErrDuplicate）
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id int64) error
	//トークンのバージョンを＋１
	IncrementTokenVersion(ctx context.Context, id int64) error
}
