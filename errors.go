package paystream

import (
	"errors"
	"fmt"

	"github.com/xraph/paystream/auth"
	"github.com/xraph/paystream/delegation"
	"github.com/xraph/paystream/fee"
	"github.com/xraph/paystream/stream"
)

// Sentinel errors for common failure scenarios. Every error returned by the
// engine wraps exactly one of them.
var (
	// Lookup errors
	ErrNotFound      = errors.New("paystream: not found")
	ErrAlreadyExists = errors.New("paystream: already exists")

	// Authorization
	ErrUnauthorized = auth.ErrUnauthorized

	// Amount and input validation
	ErrInvalidAmount    = stream.ErrInvalidAmount
	ErrExceedsTotal     = stream.ErrExceedsTotal
	ErrInvalidTimeRange = stream.ErrInvalidTimeRange
	ErrInvalidAddress   = stream.ErrInvalidAddress
	ErrInvalidDelegate  = delegation.ErrInvalidDelegate
	ErrInvalidFeeRate   = fee.ErrInvalidRate

	// Lifecycle
	ErrInvalidState = stream.ErrInvalidState

	// Protocol configuration
	ErrNotInitialized     = errors.New("paystream: protocol not initialized")
	ErrAlreadyInitialized = errors.New("paystream: protocol already initialized")

	// Collaborators
	ErrTransferFailed = errors.New("paystream: token transfer failed")
	ErrPublishFailed  = errors.New("paystream: event publish failed")

	// Store errors
	ErrStoreClosed     = errors.New("paystream: store is closed")
	ErrMigrationFailed = errors.New("paystream: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("paystream: validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap returns the sentinel the failure maps to.
func (e ValidationError) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAuthError returns true if the caller lacked authorization.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsStateError returns true if the error is about lifecycle or protocol state.
func IsStateError(err error) bool {
	return errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrNotInitialized) ||
		errors.Is(err, ErrAlreadyInitialized)
}

// IsValidationError returns true if the error rejects caller input.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrExceedsTotal) ||
		errors.Is(err, ErrInvalidTimeRange) ||
		errors.Is(err, ErrInvalidAddress) ||
		errors.Is(err, ErrInvalidDelegate) ||
		errors.Is(err, ErrInvalidFeeRate)
}
