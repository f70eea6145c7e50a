package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"storefront/internal/usecase"
	auth "storefront/internal/usecase/auth_usecase"
)

const (
	CtxUserIDKey       = "user_id"       // int64
	CtxUserRoleKey     = "user_role"     // string
	CtxTokenVersionKey = "token_version" // int
)

// トークンを検証してclaimsを返す約束（auth.JWTIssuer）
type TokenParser interface {
	Parse(raw string) (*auth.Claims, error)
}

// bearerAuth用のJWT検証ミドルウェア。
func AuthJWT(parser TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//Authorizationヘッダを取得
			authz := c.Request().Header.Get(echo.HeaderAuthorization)
			if authz == "" {
				return unauthorized()
			}

			//Bearer形式か確認してtokenを抜く
			parts := strings.SplitN(authz, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return unauthorized()
			}
			rawToken := strings.TrimSpace(parts[1])
			if rawToken == "" {
				return unauthorized()
			}

			//署名・期限・issuerの検証
			claims, err := parser.Parse(rawToken)
			if err != nil {
				return unauthorized()
			}

			userID, err := claims.UserID()
			if err != nil {
				return unauthorized()
			}
			if claims.Role == "" || claims.TV < 0 {
				return unauthorized()
			}

			//contextへ保存
			c.Set(CtxUserIDKey, userID)
			c.Set(CtxUserRoleKey, claims.Role)
			c.Set(CtxTokenVersionKey, claims.TV)

			return next(c)
		}
	}
}

func unauthorized() error {
	return usecase.NewUnauthorized(usecase.CodeUnauthorized, "Authentication required")
}
