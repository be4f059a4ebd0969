package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON            = "INVALID_JSON"
	ErrCodeMissingField           = "MISSING_FIELD"
	ErrCodeInvalidStatus          = "INVALID_STATUS"
	ErrCodeInvalidQuantity        = "INVALID_QUANTITY"
	ErrCodeInvalidPercent         = "INVALID_PERCENT"
	ErrCodeInvalidAction          = "INVALID_ACTION"
	ErrCodeInvalidFilter          = "INVALID_FILTER"
	ErrCodeOrderNotFound          = "ORDER_NOT_FOUND"
	ErrCodeDiscountAlreadyApplied = "DISCOUNT_ALREADY_APPLIED"
	ErrCodeNotRepeatCustomer      = "NOT_REPEAT_CUSTOMER"
	ErrCodeCannotCancelDelivered  = "CANNOT_CANCEL_DELIVERED"
	ErrCodeOrderAlreadyCancelled  = "ORDER_ALREADY_CANCELLED"
	ErrCodeUnauthorised           = "UNAUTHORIZED"
	ErrCodeInternalError          = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so wrapped copies compare equal.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError reports a missing or malformed request field.
func NewValidationError(message string) *DomainError {
	return NewDomainError(ErrCodeMissingField, message)
}

// Common domain errors
var (
	ErrInvalidStatus          = NewDomainError(ErrCodeInvalidStatus, "Invalid status")
	ErrInvalidQuantity        = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrInvalidPercent         = NewDomainError(ErrCodeInvalidPercent, "Discount percent must be greater than 0 and at most 100")
	ErrInvalidAction          = NewDomainError(ErrCodeInvalidAction, `Invalid action. Use "approve" or "reject"`)
	ErrOrderNotFound          = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrDiscountAlreadyApplied = NewDomainError(ErrCodeDiscountAlreadyApplied, "Discount already applied to this order")
	ErrNotRepeatCustomer      = NewDomainError(ErrCodeNotRepeatCustomer, "Order is not from a repeat customer")
	ErrCannotCancelDelivered  = NewDomainError(ErrCodeCannotCancelDelivered, "Cannot cancel delivered orders")
	ErrOrderAlreadyCancelled  = NewDomainError(ErrCodeOrderAlreadyCancelled, "Order is already cancelled")
)
