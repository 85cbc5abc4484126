// Package errors provides custom error types for the Meu Gestor API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches AppErrors by code, so Wrap and WithMessage results still
// satisfy errors.Is against their sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrForbidden    = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrInvalidToken = &AppError{Code: "INVALID_TOKEN", Message: "Token inválido ou expirado.", StatusCode: http.StatusNotFound}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound = &AppError{Code: "USER_NOT_FOUND", Message: "Usuário não encontrado.", StatusCode: http.StatusNotFound}
	ErrInvalidPhone = &AppError{Code: "INVALID_PHONE", Message: "Número de telefone é obrigatório.", StatusCode: http.StatusBadRequest}
)

// Period errors.
var (
	ErrPeriodUnresolved = &AppError{Code: "PERIOD_UNRESOLVED", Message: "Não consegui entender o período.", StatusCode: http.StatusBadRequest}
)

// Ledger errors.
var (
	ErrExpenseNotFound  = &AppError{Code: "EXPENSE_NOT_FOUND", Message: "Despesa não encontrada.", StatusCode: http.StatusNotFound}
	ErrIncomeNotFound   = &AppError{Code: "INCOME_NOT_FOUND", Message: "Crédito não encontrado.", StatusCode: http.StatusNotFound}
	ErrInvalidEntryKind = &AppError{Code: "INVALID_ENTRY_KIND", Message: "Tipo de lançamento inválido.", StatusCode: http.StatusBadRequest}
)

// Category errors.
var (
	ErrCategoryNotFound    = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Categoria não encontrada ou não pertence a este usuário.", StatusCode: http.StatusNotFound}
	ErrDuplicateCategory   = &AppError{Code: "DUPLICATE_CATEGORY", Message: "Já existe uma categoria com este nome.", StatusCode: http.StatusConflict}
	ErrDefaultCategoryRead = &AppError{Code: "DEFAULT_CATEGORY_READONLY", Message: "Categorias padrão não podem ser alteradas.", StatusCode: http.StatusBadRequest}
)

// Reminder errors.
var (
	ErrReminderNotFound = &AppError{Code: "REMINDER_NOT_FOUND", Message: "Lembrete não encontrado.", StatusCode: http.StatusNotFound}
	ErrInvalidDueDate   = &AppError{Code: "INVALID_DUE_DATE", Message: "Formato de data inválido.", StatusCode: http.StatusBadRequest}
)

// Planned expense errors.
var (
	ErrPlannedExpenseNotFound = &AppError{Code: "PLANNED_EXPENSE_NOT_FOUND", Message: "Conta planejada não encontrada.", StatusCode: http.StatusNotFound}
)

// Collaborator errors.
var (
	ErrClassifierUnavailable = &AppError{Code: "CLASSIFIER_UNAVAILABLE", Message: "Classifier unavailable", StatusCode: http.StatusBadGateway}
	ErrDeliveryFailed        = &AppError{Code: "DELIVERY_FAILED", Message: "Message delivery failed", StatusCode: http.StatusBadGateway}
)
