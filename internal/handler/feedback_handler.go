package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront/internal/middleware"
	"storefront/internal/usecase"
)

type FeedbackHandler struct {
	uc *usecase.FeedbackUsecase
}

func NewFeedbackHandler(uc *usecase.FeedbackUsecase) *FeedbackHandler {
	return &FeedbackHandler{uc: uc}
}

type feedbackRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *FeedbackHandler) RegisterRoutes(api *echo.Group, guards Guards) {
	api.GET("/products/:id/feedbacks", h.list)
	api.POST("/products/:id/feedbacks", h.create, guards.Auth...)
	api.DELETE("/products/:id/feedbacks/:feedbackId", h.delete, guards.Admin...)
}

func (h *FeedbackHandler) list(c echo.Context) error {
	productID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	page, limit, err := paging(c)
	if err != nil {
		return err
	}

	out, err := h.uc.List(c.Request().Context(), productID, page, limit)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, out)
}

func (h *FeedbackHandler) create(c echo.Context) error {
	p, err := middleware.Principal(c)
	if err != nil {
		return err
	}
	productID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req feedbackRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	out, err := h.uc.Create(c.Request().Context(), p, productID, usecase.FeedbackInput{Rating: req.Rating, Comment: req.Comment})
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, out)
}

func (h *FeedbackHandler) delete(c echo.Context) error {
	p, err := middleware.Principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "feedbackId")
	if err != nil {
		return err
	}

	if err := h.uc.Delete(c.Request().Context(), p, id); err != nil {
		return err
	}
	return ok(c, http.StatusOK, map[string]string{"message": "Feedback deleted successfully"})
}
