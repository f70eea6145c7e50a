package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront/internal/middleware"
	"storefront/internal/usecase"
)

// /users は管理者用（GET /users/:id だけ本人も可）
type UserHandler struct {
	uc *usecase.UserUsecase
}

func NewUserHandler(uc *usecase.UserUsecase) *UserHandler {
	return &UserHandler{uc: uc}
}

// 項目ごとに任意
type updateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Role  *string `json:"role"`
}

func (h *UserHandler) RegisterRoutes(api *echo.Group, guards Guards) {
	api.GET("/users", h.list, guards.Admin...)
	api.GET("/users/:id", h.detail, guards.Auth...)
	api.PUT("/users/:id", h.update, guards.Admin...)
	api.DELETE("/users/:id", h.delete, guards.Admin...)
}

func (h *UserHandler) list(c echo.Context) error {
	page, limit, err := paging(c)
	if err != nil {
		return err
	}

	out, err := h.uc.List(c.Request().Context(), c.QueryParam("role"), page, limit)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, out)
}

func (h *UserHandler) detail(c echo.Context) error {
	p, err := middleware.Principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	out, err := h.uc.Get(c.Request().Context(), p, id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, out)
}

func (h *UserHandler) update(c echo.Context) error {
	actor, err := middleware.Principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	out, err := h.uc.Update(c.Request().Context(), actor, id, usecase.UpdateUserInput{
		Name:  req.Name,
		Email: req.Email,
		Role:  req.Role,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, out)
}

func (h *UserHandler) delete(c echo.Context) error {
	actor, err := middleware.Principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.uc.Delete(c.Request().Context(), actor, id); err != nil {
		return err
	}
	return ok(c, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}
