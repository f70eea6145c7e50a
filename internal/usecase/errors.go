package usecase

import (
	"errors"
	"fmt"

	repo "storefront/internal/repository"
	"storefront/internal/validator"
)

// エラーの種類。handlerでHTTPステータスに変換する
type Kind int

const (
	KindInvalid Kind = iota + 1
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindInternal
)

const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeBadRequest         = "BAD_REQUEST"
	CodeNotFound           = "RESOURCE_NOT_FOUND"
	CodeInsufficientStock  = "INSUFFICIENT_STOCK"
	CodeEmailAlreadyExists = "EMAIL_ALREADY_EXISTS"
	CodeInvalidStatus      = "INVALID_STATUS"
	CodeUserHasOrders      = "USER_HAS_ORDERS"
	CodeFileTooLarge       = "FILE_TOO_LARGE"
	CodeInvalidFile        = "INVALID_FILE"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidCredentials = "AUTH_001"
	CodeForbidden          = "AUTH_004"
	CodeInternal           = "INTERNAL_ERROR"
)

type AppError struct {
	Kind    Kind
	Code    string
	Message string
	Details any
	// 内部原因（レスポンスには出さない）
	Err error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func AsAppError(err error) (*AppError, bool) {
	var ae *AppError
	ok := errors.As(err, &ae)
	return ae, ok
}

func NewInvalid(code, message string) *AppError {
	return &AppError{Kind: KindInvalid, Code: code, Message: message}
}

// NewValidationは集めた違反をdetailsに載せる
func NewValidation(v validator.Violations) *AppError {
	return &AppError{Kind: KindInvalid, Code: CodeValidation, Message: "Validation failed", Details: map[string]string(v)}
}

func NewNotFound(resource string, id int64) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found with id : '%d'", resource, id),
	}
}

func NewUnauthorized(code, message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Code: code, Message: message}
}

func NewForbidden() *AppError {
	return &AppError{Kind: KindForbidden, Code: CodeForbidden, Message: "Insufficient permissions"}
}

func NewInternal(err error) *AppError {
	return &AppError{Kind: KindInternal, Code: CodeInternal, Message: "An unexpected error occurred", Err: err}
}

// fromRepoはrepoのエラーをAppErrorにする（既にAppErrorならそのまま）
func fromRepo(err error, resource string, id int64) error {
	if err == nil {
		return nil
	}
	if _, ok := AsAppError(err); ok {
		return err
	}
	if errors.Is(err, repo.ErrNotFound) {
		return NewNotFound(resource, id)
	}
	return NewInternal(err)
}

// internalは想定外のエラーだけ包む
func internal(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsAppError(err); ok {
		return err
	}
	return NewInternal(err)
}
