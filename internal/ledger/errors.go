package ledger

import "errors"

// Precondition failures are detected before any state mutation.
// ErrTransferFailed is the exception: on withdraw it is returned after
// the speculative balance decrement has been rolled back.
var (
	// ErrInvalidAmount means the amount is zero, negative, or exceeds
	// the position's balance.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrStillLocked means withdrawal was attempted before lock expiry.
	ErrStillLocked = errors.New("position still locked")

	// ErrTransferFailed means the token gateway could not move funds.
	ErrTransferFailed = errors.New("transfer failed")

	// ErrUnauthorized means a non-administrator attempted pool creation.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrOperationInFlight means another deposit or withdrawal for the
	// same (pool, user) has not completed yet.
	ErrOperationInFlight = errors.New("operation already in flight for position")
)
