package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"storefront/internal/domain/model"
	"storefront/internal/repository"
	"storefront/internal/usecase"
)

// JWTのtvとDBのtoken_versionの一致するか確認。
// roleもDBの値で上書きする（降格直後の古いトークン対策）
func TokenVersionGuard(userRepo repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//AuthJWTが入れたuser_id を取得する
			userID, ok := c.Get(CtxUserIDKey).(int64)
			if !ok || userID <= 0 {
				return unauthorized()
			}

			//AuthJWTが入れたtoken_version(tv)を取得する
			tv, ok := c.Get(CtxTokenVersionKey).(int)
			if !ok || tv < 0 {
				return unauthorized()
			}

			//DBから最新のuserを取得する
			user, err := userRepo.FindByID(c.Request().Context(), userID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return unauthorized()
				}
				return usecase.NewInternal(err)
			}

			//token_version が一致しなければ強制ログアウト扱い（401）
			if user.TokenVersion != tv {
				return unauthorized()
			}

			c.Set(CtxUserRoleKey, string(user.Role))
			return next(c)
		}
	}
}

// PrincipalはAuthJWT/TokenVersionGuardの後で呼ぶ
func Principal(c echo.Context) (usecase.Principal, error) {
	userID, ok := c.Get(CtxUserIDKey).(int64)
	if !ok || userID <= 0 {
		return usecase.Principal{}, unauthorized()
	}
	role, _ := c.Get(CtxUserRoleKey).(string)
	r, ok := model.ParseRole(role)
	if !ok {
		return usecase.Principal{}, unauthorized()
	}
	return usecase.Principal{UserID: userID, Role: r}, nil
}
