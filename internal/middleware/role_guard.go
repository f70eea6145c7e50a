package middleware

import (
	"github.com/labstack/echo/v4"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"
)

// RequireRoleはcontextに入っているroleが許可されたものか確認します。
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxUserRoleKey).(string)
			if !ok || role == "" {
				return unauthorized()
			}
			if _, ok := allowed[model.Role(role)]; !ok {
				return usecase.NewForbidden()
			}
			return next(c)
		}
	}
}
