package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"storefront/internal/middleware"
	"storefront/internal/usecase"
	"storefront/internal/validator"
)

// 管理者用の商品API
type AdminProductHandler struct {
	uc *usecase.ProductUsecase
}

func NewAdminProductHandler(uc *usecase.ProductUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

type productRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       *int64          `json:"stock"`
}

func (r productRequest) toInput() usecase.ProductInput {
	return usecase.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Price:       r.Price,
		Stock:       r.Stock,
	}
}

type restockRequest struct {
	Stock  *int64 `json:"stock"`
	Reason string `json:"reason"`
}

func (h *AdminProductHandler) RegisterRoutes(api *echo.Group, guards Guards) {
	api.POST("/products", h.create, guards.Admin...)
	api.PUT("/products/:id", h.update, guards.Admin...)
	api.DELETE("/products/:id", h.delete, guards.Admin...)
	api.POST("/products/:id/image", h.uploadImage, guards.Admin...)
	api.POST("/products/:id/restock", h.restock, guards.Admin...)
}

func (h *AdminProductHandler) create(c echo.Context) error {
	actor, err := middleware.Principal(c)
	if err != nil {
		return err
	}
	var req productRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	out, err := h.uc.Create(c.Request().Context(), actor, req.toInput())
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, out)
}

func (h *AdminProductHandler) update(c echo.Context) error {
	actor, err := middleware.Principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req productRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	out, err := h.uc.Update(c.Request().Context(), actor, id, req.toInput())
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, out)
}

func (h *AdminProductHandler) delete(c echo.Context) error {
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
	return ok(c, http.StatusOK, map[string]string{"message": "Product deleted successfully"})
}

// multipartのfileを受け取る
func (h *AdminProductHandler) uploadImage(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return usecase.NewInvalid(usecase.CodeInvalidFile, "File is required")
	}
	f, err := fh.Open()
	if err != nil {
		return usecase.NewInvalid(usecase.CodeInvalidFile, "Could not read file")
	}
	defer f.Close()

	out, err := h.uc.UploadImage(c.Request().Context(), id, usecase.ImageUpload{
		Filename: fh.Filename,
		Size:     fh.Size,
		Content:  f,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, out)
}

func (h *AdminProductHandler) restock(c echo.Context) error {
	actor, err := middleware.Principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req restockRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Stock == nil {
		v := validator.New()
		v.Add("stock", "must not be null")
		return usecase.NewValidation(v)
	}

	out, err := h.uc.Restock(c.Request().Context(), actor, id, usecase.RestockInput{Stock: *req.Stock, Reason: req.Reason})
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, out)
}
