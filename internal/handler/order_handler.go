package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront/internal/middleware"
	"storefront/internal/usecase"
)

// ログインユーザー用の注文API
type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

type placeOrderItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int64 `json:"quantity"`
}

type placeOrderRequest struct {
	Items []placeOrderItemRequest `json:"items"`
}

func (h *OrderHandler) RegisterRoutes(api *echo.Group, guards Guards) {
	api.POST("/orders", h.place, guards.Auth...)
	api.GET("/orders/me", h.listMine, guards.Auth...)
	api.GET("/orders/:id", h.detail, guards.Auth...)
}

func (h *OrderHandler) place(c echo.Context) error {
	p, err := middleware.Principal(c)
	if err != nil {
		return err
	}
	var req placeOrderRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	in := usecase.PlaceOrderInput{Items: make([]usecase.PlaceOrderItemInput, 0, len(req.Items))}
	for _, it := range req.Items {
		in.Items = append(in.Items, usecase.PlaceOrderItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	out, err := h.uc.PlaceOrder(c.Request().Context(), p, in)
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, out)
}

func (h *OrderHandler) listMine(c echo.Context) error {
	p, err := middleware.Principal(c)
	if err != nil {
		return err
	}
	page, limit, err := paging(c)
	if err != nil {
		return err
	}

	out, err := h.uc.ListMyOrders(c.Request().Context(), p, page, limit)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, out)
}

// 他人の注文はAUTH_004
func (h *OrderHandler) detail(c echo.Context) error {
	p, err := middleware.Principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	out, err := h.uc.GetOrder(c.Request().Context(), p, id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, out)
}
