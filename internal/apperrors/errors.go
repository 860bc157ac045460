package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies the kind of failure so callers can explain what to fix.
type Code string

const (
	CodeValidation            Code = "VALIDATION_ERROR"
	CodeNotFound              Code = "NOT_FOUND"
	CodeForbidden             Code = "FORBIDDEN"
	CodeAuthRequired          Code = "AUTH_REQUIRED"
	CodeEmptyCart             Code = "EMPTY_CART"
	CodeProductUnavailable    Code = "PRODUCT_UNAVAILABLE"
	CodeInsufficientInventory Code = "INSUFFICIENT_INVENTORY"
	CodeInvalidTransition     Code = "INVALID_TRANSITION"
	CodeConflict              Code = "CONFLICT"
	CodeUpstreamUnavailable   Code = "UPSTREAM_UNAVAILABLE"
	CodeInternal              Code = "INTERNAL_ERROR"
)

// AppError is a typed domain error carrying a code and optional details.
type AppError struct {
	Code    Code              `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a single detail to the error.
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// Wrap attaches the underlying cause.
func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

// New creates an AppError.
func New(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Validation creates a validation error with per-field details.
func Validation(message string, fields map[string]string) *AppError {
	return &AppError{Code: CodeValidation, Message: message, Details: fields}
}

// NotFound creates a not found error for the given resource and id.
func NotFound(resource, id string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource)).WithDetail("id", id)
}

// Forbidden creates an error for callers lacking staff capability.
func Forbidden() *AppError {
	return New(CodeForbidden, "staff capability required")
}

// AuthRequired creates an error for requests without a valid session.
func AuthRequired() *AppError {
	return New(CodeAuthRequired, "authentication required")
}

// EmptyCart is returned when checking out a cart without items.
func EmptyCart() *AppError {
	return New(CodeEmptyCart, "cart is empty")
}

// ProductUnavailable names a cart line whose product is no longer sold.
func ProductUnavailable(productID, name string) *AppError {
	return New(CodeProductUnavailable, fmt.Sprintf("product %q is no longer available", name)).
		WithDetail("product_id", productID)
}

// InsufficientInventory names a cart line that cannot be fulfilled from stock.
func InsufficientInventory(productID, name string, requested, available int64) *AppError {
	return New(CodeInsufficientInventory, fmt.Sprintf("not enough stock for %q", name)).
		WithDetail("product_id", productID).
		WithDetail("requested", fmt.Sprint(requested)).
		WithDetail("available", fmt.Sprint(available))
}

// InvalidTransition reports an order status change outside the lifecycle graph.
func InvalidTransition(from, to string) *AppError {
	return New(CodeInvalidTransition, fmt.Sprintf("cannot move order from %s to %s", from, to)).
		WithDetail("from", from).
		WithDetail("to", to)
}

// Internal wraps an unexpected infrastructure failure.
func Internal(err error) *AppError {
	return New(CodeInternal, "an internal error occurred").Wrap(err)
}

// As returns the AppError in err's chain, if any.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the code of err, or CodeInternal for untyped errors.
func CodeOf(err error) Code {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// HTTPStatus maps a code to the status used by the HTTP layer.
func HTTPStatus(code Code) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeForbidden:
		return http.StatusForbidden
	case CodeAuthRequired:
		return http.StatusUnauthorized
	case CodeEmptyCart, CodeProductUnavailable, CodeInsufficientInventory:
		return http.StatusUnprocessableEntity
	case CodeInvalidTransition, CodeConflict:
		return http.StatusConflict
	case CodeUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
