package domain

import "errors"

// Service-level error kinds. Services wrap these with a human-readable
// message; callers classify with errors.Is. Nothing is retried automatically.
var (
	// ErrAuthentication covers a login attempt that matched no account.
	ErrAuthentication = errors.New("invalid credentials")

	// ErrNotFound is returned when a referenced account or holder does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned for malformed input caught before any remote call.
	ErrValidation = errors.New("validation failed")

	// ErrAlreadyRegistered is returned on a uniqueness violation for
	// DNI, email, phone or account number.
	ErrAlreadyRegistered = errors.New("already registered")

	// ErrInsufficientFunds is returned when a withdrawal exceeds the balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrGenerationExhausted is returned when unique account number
	// generation runs out of attempts.
	ErrGenerationExhausted = errors.New("unique number generation exhausted")

	// ErrRemote is an uncategorized backend fault, message passed through.
	ErrRemote = errors.New("backend request failed")
)
