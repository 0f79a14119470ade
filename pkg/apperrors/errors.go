package apperrors

import (
	"errors"
	"net/http"
)

// DomainError is a business-rule failure that callers may surface or retry.
// Every operation that hits one rolls back its transaction first.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	return e.Message
}

func New(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

var (
	ErrNotFound                    = New("NOT_FOUND", "resource not found")
	ErrInsufficientStock           = New("INSUFFICIENT_STOCK", "insufficient stock available")
	ErrInvalidStateTransition      = New("INVALID_STATE_TRANSITION", "operation not allowed in current state")
	ErrInvalidQuantity             = New("INVALID_QUANTITY", "quantity is invalid for this operation")
	ErrReturnWindowExpired         = New("RETURN_WINDOW_EXPIRED", "return window for this purchase has expired")
	ErrPendingSupplierConfirmation = New("PENDING_SUPPLIER_CONFIRMATION", "supplier confirmation is still pending")
	ErrContention                  = New("CONTENTION", "concurrent conflict, retry the operation")
)

// HTTPStatus maps a domain error to the response status handlers should use.
// Non-domain errors are treated as internal.
func HTTPStatus(err error) int {
	var de *DomainError
	if !errors.As(err, &de) {
		return http.StatusInternalServerError
	}
	switch de.Code {
	case "NOT_FOUND":
		return http.StatusNotFound
	case "CONTENTION":
		return http.StatusConflict
	case "INSUFFICIENT_STOCK", "INVALID_STATE_TRANSITION", "RETURN_WINDOW_EXPIRED", "PENDING_SUPPLIER_CONFIRMATION":
		return http.StatusConflict
	case "INVALID_QUANTITY":
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}
