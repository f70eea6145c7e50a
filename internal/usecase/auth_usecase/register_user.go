package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/repository"
	"storefront/internal/usecase"
	"storefront/internal/validator"
)

// 会員登録の入力
type RegisterUserInput struct {
	Name     string
	Email    string
	Password string
}

// 登録・ログインの出力
type AuthOutput struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// RegisterUserUsecaseは会員登録の処理。
type RegisterUserUsecase struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	issuer   AccessTokenIssuer
	clock    Clock
}

// DI
func NewRegisterUserUsecase(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	issuer AccessTokenIssuer,
	clock Clock,
) *RegisterUserUsecase {
	return &RegisterUserUsecase{
		userRepo: userRepo,
		hasher:   hasher,
		issuer:   issuer,
		clock:    clock,
	}
}

// 会員登録実行（登録したらそのままトークンを返す）
func (u *RegisterUserUsecase) Execute(ctx context.Context, in RegisterUserInput) (AuthOutput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if v := validator.Register(in.Name, in.Email, in.Password); !v.Empty() {
		return AuthOutput{}, usecase.NewValidation(v)
	}

	// email重複チェック
	if _, err := u.userRepo.FindByEmail(ctx, in.Email); err == nil {
		return AuthOutput{}, emailAlreadyExists()
	} else if !errors.Is(err, repository.ErrNotFound) {
		return AuthOutput{}, usecase.NewInternal(err)
	}

	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return AuthOutput{}, usecase.NewInternal(err)
	}

	// 初期はCUSTOMER
	user := &model.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hashed,
		Role:         model.RoleCustomer,
	}
	if err := u.userRepo.Create(ctx, user); err != nil {
		// 同時登録はユニーク制約で弾かれる
		if errors.Is(err, repository.ErrDuplicate) {
			return AuthOutput{}, emailAlreadyExists()
		}
		return AuthOutput{}, usecase.NewInternal(err)
	}

	token, _, err := u.issuer.Issue(user.ID, user.Role, user.TokenVersion, u.clock.Now())
	if err != nil {
		return AuthOutput{}, usecase.NewInternal(err)
	}
	return AuthOutput{Token: token, Username: user.Name, Role: string(user.Role)}, nil
}

func emailAlreadyExists() error {
	return usecase.NewInvalid(usecase.CodeEmailAlreadyExists, "Email already exists")
}
