package apperror

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Wallet Ledger Business Logic (WAL) ----

// Error codes callers branch on.
const (
	CodeInvalidAmount       = "WAL_001"
	CodeWalletNotFound      = "WAL_002"
	CodeInsufficientBalance = "WAL_003"
)

func ErrInvalidAmount() *AppError {
	return New(CodeInvalidAmount, "Amount must be greater than zero", http.StatusBadRequest)
}

func ErrWalletNotFound() *AppError {
	return New(CodeWalletNotFound, "Wallet not found", http.StatusNotFound)
}

// ErrInsufficientBalance signals that a debit exceeds the available balance.
// The message is worded for checkout: the balance may simply have changed
// between quote and settlement, so the caller should re-quote and retry.
func ErrInsufficientBalance(available, requested decimal.Decimal) *AppError {
	return New(
		CodeInsufficientBalance,
		fmt.Sprintf("Wallet balance changed, please retry (available %s, requested %s)", available, requested),
		http.StatusConflict,
	)
}

func ErrWalletAlreadyExists() *AppError {
	return New("WAL_004", "Wallet already exists for this customer and currency", http.StatusConflict)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// ErrStorage wraps a transient storage failure. No partial mutation occurred;
// the caller may retry.
func ErrStorage(err error) *AppError {
	return Wrap("SYS_001", "Transient storage error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a WAL_001-style validation error.
func Validation(message string) *AppError {
	return New(CodeInvalidAmount, message, http.StatusBadRequest)
}
