package dto

// APIError is the structured error body every endpoint returns on failure.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes
const (
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeValidation   = "validation_error"
	ErrCodeBadRequest   = "bad_request"
	ErrCodeLedgerError  = "ledger_error"
	ErrCodeConflict     = "awaiting_supplier_confirmation"
	ErrCodeInternal     = "internal_error"
)

// NewAPIError creates a new APIError with the given code and message.
func NewAPIError(code, message string) APIError {
	return APIError{Code: code, Message: message}
}

// UnauthorizedError is returned on missing or wrong bearer tokens.
func UnauthorizedError() APIError {
	return NewAPIError(ErrCodeUnauthorized, "missing or invalid bearer token")
}

// ValidationError creates a 422 validation error response.
func ValidationError(message string) APIError {
	return NewAPIError(ErrCodeValidation, message)
}

// BadRequestError creates a bad request error response.
func BadRequestError(message string) APIError {
	return NewAPIError(ErrCodeBadRequest, message)
}

// LedgerError wraps an upstream Odoo failure for a 502 response.
func LedgerError(err error) APIError {
	return NewAPIError(ErrCodeLedgerError, err.Error())
}

// ConflictError is returned when supplier creation needs confirmation.
func ConflictError(message string) APIError {
	return NewAPIError(ErrCodeConflict, message)
}

// InternalError creates an internal server error response.
func InternalError() APIError {
	return NewAPIError(ErrCodeInternal, "an internal error occurred")
}
