package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront/internal/domain/model"
	"storefront/internal/handler"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/repository"
)

type Handlers struct {
	Auth         *handler.AuthHandler
	Product      *handler.ProductHandler
	AdminProduct *handler.AdminProductHandler
	Feedback     *handler.FeedbackHandler
	Order        *handler.OrderHandler
	AdminOrder   *handler.AdminOrderHandler
	User         *handler.UserHandler
	Audit        *handler.AuditHandler
}

// NewGuardsは認証チェーン（JWT→token_version→role）を組み立てる
func NewGuards(parser middleware.TokenParser, userRepo repository.UserRepository) handler.Guards {
	authChain := []echo.MiddlewareFunc{
		middleware.AuthJWT(parser),
		middleware.TokenVersionGuard(userRepo),
	}
	adminChain := append(append([]echo.MiddlewareFunc{}, authChain...), middleware.RequireRole(model.RoleAdmin))
	return handler.Guards{Auth: authChain, Admin: adminChain}
}

func RegisterRoutes(e *echo.Echo, h Handlers, guards handler.Guards, db Pinger, m *metrics.Metrics) {
	e.GET("/healthz", healthz(db))
	if m != nil {
		e.GET("/metrics", m.Handler())
	}

	api := e.Group("/api")
	h.Auth.RegisterRoutes(api)
	h.Product.RegisterRoutes(api)
	h.AdminProduct.RegisterRoutes(api, guards)
	h.Feedback.RegisterRoutes(api, guards)
	h.Order.RegisterRoutes(api, guards)
	h.AdminOrder.RegisterRoutes(api, guards)
	h.User.RegisterRoutes(api, guards)
	h.Audit.RegisterRoutes(api, guards)
}

// ローカル保存の画像を配信する
func RegisterStatic(e *echo.Echo, prefix, root string) {
	e.Static(prefix, root)
}

func healthz(db Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if db != nil {
			if err := db.PingContext(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}
