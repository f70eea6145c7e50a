package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront/internal/middleware"
	"storefront/internal/usecase"
)

type AdminOrderHandler struct {
	uc *usecase.AdminOrderUsecase
}

func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc}
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status"`
}

func (h *AdminOrderHandler) RegisterRoutes(api *echo.Group, guards Guards) {
	api.GET("/orders", h.list, guards.Admin...)
	api.PUT("/orders/:id/status", h.updateStatus, guards.Admin...)
	api.DELETE("/orders/:id", h.delete, guards.Admin...)
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	page, limit, err := paging(c)
	if err != nil {
		return err
	}

	out, err := h.uc.List(c.Request().Context(), c.QueryParam("status"), page, limit)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, out)
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	// 操作した管理者（監査ログ用）
	actor, err := middleware.Principal(c)
	if err != nil {
		return err
	}
	orderID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req OrderStatusUpdateRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	out, err := h.uc.UpdateStatus(c.Request().Context(), actor, orderID, req.Status)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, out)
}

func (h *AdminOrderHandler) delete(c echo.Context) error {
	actor, err := middleware.Principal(c)
	if err != nil {
		return err
	}
	orderID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.uc.Delete(c.Request().Context(), actor, orderID); err != nil {
		return err
	}
	return ok(c, http.StatusOK, map[string]string{"message": "Order deleted successfully"})
}
