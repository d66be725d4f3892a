package common

import "errors"

// Error codes attached to AppError values raised by the checkout pipeline.
const (
	CodeConfiguration        = "CONFIGURATION"
	CodeInventoryUnavailable = "INVENTORY_UNAVAILABLE"
	CodeInvoiceFailed        = "INVOICE_FAILED"
)

var (
	// ErrConfiguration marks invalid strategy or modifier wiring detected at order construction.
	ErrConfiguration = errors.New("invalid checkout configuration")
	// ErrInventory marks failures reported by an inventory collaborator.
	ErrInventory = errors.New("inventory update failed")
	// ErrInvoice marks failures reported by an invoicing collaborator.
	ErrInvoice = errors.New("invoice generation failed")
)

// AppError represents an error with an attached code.
type AppError struct {
	Code    string
	Message string
	Err     error
	Details any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		if e.Message == "" {
			return e.Err.Error()
		}
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewConfigurationError reports invalid order wiring. The result matches ErrConfiguration.
func NewConfigurationError(message string) *AppError {
	return NewAppError(CodeConfiguration, message, ErrConfiguration)
}

// NewInventoryError reports an unavailable item. The result matches ErrInventory and cause.
func NewInventoryError(item string, cause error) *AppError {
	err := ErrInventory
	if cause != nil {
		err = errors.Join(ErrInventory, cause)
	}
	return &AppError{Code: CodeInventoryUnavailable, Message: "item " + item + " unavailable", Err: err, Details: map[string]any{"item": item}}
}

// NewInvoiceError reports a failed invoice for the given order reference.
func NewInvoiceError(orderRef string, cause error) *AppError {
	err := ErrInvoice
	if cause != nil {
		err = errors.Join(ErrInvoice, cause)
	}
	return &AppError{Code: CodeInvoiceFailed, Message: "invoice for order " + orderRef, Err: err, Details: map[string]any{"order": orderRef}}
}

// HasCode reports whether err wraps an AppError carrying code.
func HasCode(err error, code string) bool {
	var target *AppError
	if !errors.As(err, &target) {
		return false
	}
	return target.Code == code
}
