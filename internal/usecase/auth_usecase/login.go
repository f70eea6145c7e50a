package auth

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/repository"
	"storefront/internal/usecase"
	"storefront/internal/validator"
)

// handlerからusecaseに渡す入力
type LoginInput struct {
	Email    string
	Password string
}

type LoginUsecase struct {
	userRepo repository.UserRepository
	verifier PasswordVerifier
	issuer   AccessTokenIssuer
	clock    Clock
}

func NewLoginUsecase(
	userRepo repository.UserRepository,
	verifier PasswordVerifier,
	issuer AccessTokenIssuer,
	clock Clock,
) *LoginUsecase {
	return &LoginUsecase{
		userRepo: userRepo,
		verifier: verifier,
		issuer:   issuer,
		clock:    clock,
	}
}

// ログイン処理を実行する
func (u *LoginUsecase) Execute(ctx context.Context, in LoginInput) (AuthOutput, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if v := validator.Login(in.Email, in.Password); !v.Empty() {
		return AuthOutput{}, usecase.NewValidation(v)
	}

	//emailでユーザー取得（存在しないのもパスワード違いも同じエラー）
	user, err := u.userRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AuthOutput{}, invalidCredentials()
		}
		return AuthOutput{}, usecase.NewInternal(err)
	}

	//パスワード照合
	if !u.verifier.Verify(in.Password, user.PasswordHash) {
		return AuthOutput{}, invalidCredentials()
	}

	//AccessToken発行
	token, _, err := u.issuer.Issue(user.ID, user.Role, user.TokenVersion, u.clock.Now())
	if err != nil {
		return AuthOutput{}, usecase.NewInternal(err)
	}
	return AuthOutput{Token: token, Username: user.Name, Role: string(user.Role)}, nil
}

func invalidCredentials() error {
	return usecase.NewUnauthorized(usecase.CodeInvalidCredentials, "Invalid email or password")
}
