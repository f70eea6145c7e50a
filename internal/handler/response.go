package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"storefront/internal/usecase"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

// 全レスポンス共通の形
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data"`
	Error   *ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ルート登録時に使うミドルウェアの組
// Auth: AuthJWT+TokenVersionGuard / Admin: Auth+RequireRole(ADMIN)
type Guards struct {
	Auth  []echo.MiddlewareFunc
	Admin []echo.MiddlewareFunc
}

func ok(c echo.Context, status int, data any) error {
	return c.JSON(status, Envelope{Success: true, Data: data})
}

// HTTPErrorHandlerはAppErrorとechoのエラーを共通の形にする
func HTTPErrorHandler(log logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := toErrorBody(err)
		if status >= http.StatusInternalServerError {
			log.WithError(err).WithFields(logrus.Fields{
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
				"method":     c.Request().Method,
				"path":       c.Request().URL.Path,
			}).Error("internal error")
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, Envelope{Success: false, Error: body})
		}
		if werr != nil {
			log.WithError(werr).Warn("write error response failed")
		}
	}
}

func toErrorBody(err error) (int, *ErrorBody) {
	if ae, ok := usecase.AsAppError(err); ok {
		body := &ErrorBody{Code: ae.Code, Message: ae.Message, Details: ae.Details}
		if ae.Kind == usecase.KindInternal {
			// 内部原因は出さない
			body.Message = "An unexpected error occurred"
			body.Details = nil
		}
		return statusOf(ae.Kind), body
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		}
		switch he.Code {
		case http.StatusNotFound:
			return he.Code, &ErrorBody{Code: usecase.CodeNotFound, Message: msg}
		case http.StatusRequestEntityTooLarge:
			return http.StatusBadRequest, &ErrorBody{Code: usecase.CodeFileTooLarge, Message: "File size exceeds maximum allowed size"}
		case http.StatusUnauthorized:
			return he.Code, &ErrorBody{Code: usecase.CodeUnauthorized, Message: msg}
		case http.StatusForbidden:
			return he.Code, &ErrorBody{Code: usecase.CodeForbidden, Message: msg}
		}
		if he.Code >= http.StatusInternalServerError {
			return he.Code, &ErrorBody{Code: usecase.CodeInternal, Message: "An unexpected error occurred"}
		}
		return he.Code, &ErrorBody{Code: usecase.CodeBadRequest, Message: msg}
	}

	return http.StatusInternalServerError, &ErrorBody{Code: usecase.CodeInternal, Message: "An unexpected error occurred"}
}

func statusOf(k usecase.Kind) int {
	switch k {
	case usecase.KindInvalid:
		return http.StatusBadRequest
	case usecase.KindNotFound:
		return http.StatusNotFound
	case usecase.KindUnauthorized:
		return http.StatusUnauthorized
	case usecase.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(msg string) error {
	return usecase.NewInvalid(usecase.CodeBadRequest, msg)
}

// bindはJSONの形が壊れているときBAD_REQUEST
func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return badRequest("Malformed request body")
	}
	return nil
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid " + name)
	}
	return id, nil
}

// pagingはpage/limit（sizeも可）を読む。範囲チェックはusecase
func paging(c echo.Context) (int, int, error) {
	page := defaultPage
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, badRequest("invalid page")
		}
		page = p
	}

	limit := defaultLimit
	raw := c.QueryParam("limit")
	if raw == "" {
		raw = c.QueryParam("size")
	}
	if raw != "" {
		l, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, badRequest("invalid limit")
		}
		limit = l
	}
	return page, limit, nil
}
