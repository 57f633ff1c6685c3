package common

// Canonical error codes surfaced by the API. Handler packages map their domain
// sentinel errors onto these.
const (
	CodeInternal               = "INTERNAL"
	CodeBadRequest             = "BAD_REQUEST"
	CodeNotFound               = "NOT_FOUND"
	CodeInvalidAmount          = "INVALID_AMOUNT"
	CodeCurrencyMismatch       = "CURRENCY_MISMATCH"
	CodeNegativeResult         = "NEGATIVE_RESULT"
	CodeInvalidScalar          = "INVALID_SCALAR"
	CodeDivisionByZero         = "DIVISION_BY_ZERO"
	CodeInvalidQuantity        = "INVALID_QUANTITY"
	CodeInvalidThreshold       = "INVALID_THRESHOLD"
	CodeInsufficientStock      = "INSUFFICIENT_STOCK"
	CodeAlreadyTracked         = "ALREADY_TRACKED"
	CodeNotModifiable          = "NOT_MODIFIABLE"
	CodeInvalidDiscount        = "INVALID_DISCOUNT"
	CodeEmptySale              = "EMPTY_SALE"
	CodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	CodeInvalidRefund          = "INVALID_REFUND"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
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
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}
