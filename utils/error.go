package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// validation reason codes. a validation failure means the input itself is wrong;
// retrying without changing the input fails again
const (
	CodeBadInput         = "bad_input"
	CodeNegativeStock    = "negative_stock"
	CodeSignMismatch     = "sign_mismatch"
	CodeArithMismatch    = "arith_mismatch"
	CodeBadReferenceKind = "bad_reference_kind"
	CodeSelfParent       = "self_parent"
	CodeCategoryCycle    = "category_cycle"
	CodeInactiveParent   = "inactive_parent"
	CodeBadAdjustSign    = "bad_adjustment_sign"
	CodeReasonRequired   = "reason_required"
	CodeBadTransition    = "bad_transition"
	CodeDateRule         = "date_rule"
	CodeOverReceipt      = "over_receipt"
	CodeImmutableOrder   = "immutable_order"
	CodeInactiveRef      = "inactive_reference"
)

// conflict reason codes. a conflict means the row already exists
const (
	CodeDuplicateSku       = "duplicate_sku"
	CodeDuplicatePoNumber  = "duplicate_po_number"
	CodeDuplicateCategory  = "duplicate_category_name"
	CodeDuplicateOrderLine = "duplicate_order_line"
	CodeDuplicateName      = "duplicate_name"
)

type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

type ConflictError struct {
	Code    string
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// TransientError wraps store/lock failures that are safe to retry unmodified.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

func NewValidationError(code, message string) error {
	return &ValidationError{Code: code, Message: message}
}

func NewConflictError(code, message string) error {
	return &ConflictError{Code: code, Message: message}
}

func NewTransientError(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// ErrorCode returns the reason code of a validation or conflict error, "" otherwise.
func ErrorCode(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code
	}
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
