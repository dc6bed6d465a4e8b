package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the settlement core.
// These errors should be checked using errors.Is() instead of string matching.
var (
	// ErrInvalidInput indicates validation failure on input parameters
	ErrInvalidInput = errors.New("invalid input parameters")

	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized indicates the caller lacks the required role or ownership
	ErrUnauthorized = errors.New("unauthorized action")

	// ErrInvalidState indicates the operation is not valid for the payment's current status
	ErrInvalidState = errors.New("operation not valid for current status")

	// ErrConflict indicates a write-once violation (duplicate submission or double verification)
	ErrConflict = errors.New("write-once violation")

	// ErrInvalidScore indicates a risk score outside the 0-100 range
	ErrInvalidScore = errors.New("risk score out of range")

	// ErrDecryption indicates ciphertext could not be opened with the given key material
	ErrDecryption = errors.New("decryption failed")
)

// ErrAlreadyTerminal indicates a mutation was attempted on a Completed or
// Refunded payment. It wraps ErrInvalidState so callers that only distinguish
// "wrong status" keep working, while the terminal case stays detectable.
var ErrAlreadyTerminal = fmt.Errorf("payment already terminal: %w", ErrInvalidState)
