package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	auth "storefront/internal/usecase/auth_usecase"
)

type registerExecutor interface {
	Execute(ctx context.Context, in auth.RegisterUserInput) (auth.AuthOutput, error)
}

type loginExecutor interface {
	Execute(ctx context.Context, in auth.LoginInput) (auth.AuthOutput, error)
}

type AuthHandler struct {
	registerUC registerExecutor // 会員登録usecase
	loginUC    loginExecutor    // ログインusecase
}

// DIコンストラクタ
func NewAuthHandler(registerUC registerExecutor, loginUC loginExecutor) *AuthHandler {
	return &AuthHandler{registerUC: registerUC, loginUC: loginUC}
}

// /auth/register のリクエストボディ。
type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// /auth/login のリクエストボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/auth")
	g.POST("/register", h.register)
	g.POST("/login", h.login)
}

func (h *AuthHandler) register(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	out, err := h.registerUC.Execute(c.Request().Context(), auth.RegisterUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, out)
}

func (h *AuthHandler) login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	out, err := h.loginUC.Execute(c.Request().Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, out)
}
