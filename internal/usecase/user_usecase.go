package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/validator"
)

type UserUsecase struct {
	tx       repo.TransactionManager
	userRepo repo.UserRepository
}

func NewUserUsecase(tx repo.TransactionManager, userRepo repo.UserRepository) *UserUsecase {
	return &UserUsecase{tx: tx, userRepo: userRepo}
}

type UserOutput struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// nilの項目は変更しない
type UpdateUserInput struct {
	Name  *string
	Email *string
	Role  *string
}

func (u *UserUsecase) List(ctx context.Context, role string, page, limit int) (Page[UserOutput], error) {
	q, err := checkPage(page, limit)
	if err != nil {
		return Page[UserOutput]{}, err
	}

	f := repo.UserListFilter{PageQuery: q}
	if role != "" {
		r, ok := model.ParseRole(strings.ToUpper(role))
		if !ok {
			return Page[UserOutput]{}, NewInvalid(CodeBadRequest, "Invalid role: "+role)
		}
		f.Role = &r
	}

	users, total, err := u.userRepo.List(ctx, f)
	if err != nil {
		return Page[UserOutput]{}, internal(err)
	}
	return NewPage(mapSlice(users, func(m model.User) UserOutput { return toUserOutput(&m) }), total, q), nil
}

// Getは管理者か本人
func (u *UserUsecase) Get(ctx context.Context, p Principal, id int64) (UserOutput, error) {
	if id <= 0 {
		return UserOutput{}, NewInvalid(CodeBadRequest, "invalid id")
	}
	if !p.CanAccess(id) {
		return UserOutput{}, NewForbidden()
	}
	user, err := u.userRepo.FindByID(ctx, id)
	if err != nil {
		return UserOutput{}, fromRepo(err, "User", id)
	}
	return toUserOutput(user), nil
}

// Updateはrole/emailが変わったらtoken_versionを上げて既存トークンを無効にする
func (u *UserUsecase) Update(ctx context.Context, actor Principal, id int64, in UpdateUserInput) (UserOutput, error) {
	if id <= 0 {
		return UserOutput{}, NewInvalid(CodeBadRequest, "invalid id")
	}

	v := validator.New()
	var role model.Role
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
		v.Required("name", name)
		v.MaxLen("name", name, 255)
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		in.Email = &email
		v.Required("email", email)
		v.Email("email", email)
		v.MaxLen("email", email, 255)
	}
	if in.Role != nil {
		r, ok := model.ParseRole(strings.ToUpper(strings.TrimSpace(*in.Role)))
		v.Check(ok, "role", "must be one of CUSTOMER, ADMIN")
		role = r
	}
	if !v.Empty() {
		return UserOutput{}, NewValidation(v)
	}

	var out UserOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		user, err := r.Users().FindByID(ctx, id)
		if err != nil {
			return fromRepo(err, "User", id)
		}
		before := userAuditView(user)

		bump := false
		if in.Name != nil {
			user.Name = *in.Name
		}
		if in.Email != nil && *in.Email != user.Email {
			// 変わるときだけ重複を確認する
			if _, err := r.Users().FindByEmail(ctx, *in.Email); err == nil {
				return NewInvalid(CodeEmailAlreadyExists, "Email already exists")
			} else if !errors.Is(err, repo.ErrNotFound) {
				return internal(err)
			}
			user.Email = *in.Email
			bump = true
		}
		if in.Role != nil && role != user.Role {
			user.Role = role
			bump = true
		}

		if err := r.Users().Update(ctx, user); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return NewInvalid(CodeEmailAlreadyExists, "Email already exists")
			}
			return fromRepo(err, "User", id)
		}
		if bump {
			if err := r.Users().IncrementTokenVersion(ctx, id); err != nil {
				return fromRepo(err, "User", id)
			}
		}

		if err := writeAudit(ctx, r, actor, model.AuditActionUpdateUser, model.AuditResourceUser, id, before, userAuditView(user)); err != nil {
			return err
		}
		out = toUserOutput(user)
		return nil
	})
	if err != nil {
		return UserOutput{}, internal(err)
	}
	return out, nil
}

// Deleteは注文があるユーザーは消せない。フィードバックは一緒に消す
func (u *UserUsecase) Delete(ctx context.Context, actor Principal, id int64) error {
	if id <= 0 {
		return NewInvalid(CodeBadRequest, "invalid id")
	}
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		user, err := r.Users().FindByID(ctx, id)
		if err != nil {
			return fromRepo(err, "User", id)
		}

		n, err := r.Orders().CountByUserID(ctx, id)
		if err != nil {
			return internal(err)
		}
		if n > 0 {
			e := NewInvalid(CodeUserHasOrders, "Cannot delete user with existing orders")
			e.Details = map[string]int64{"orders": n}
			return e
		}

		if err := r.Feedback().DeleteByUserID(ctx, id); err != nil {
			return internal(err)
		}
		if err := r.Users().Delete(ctx, id); err != nil {
			return fromRepo(err, "User", id)
		}
		return writeAudit(ctx, r, actor, model.AuditActionDeleteUser, model.AuditResourceUser, id, userAuditView(user), nil)
	})
	return internal(err)
}

func toUserOutput(m *model.User) UserOutput {
	return UserOutput{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Role:      string(m.Role),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func userAuditView(m *model.User) map[string]string {
	return map[string]string{"name": m.Name, "email": m.Email, "role": string(m.Role)}
}
