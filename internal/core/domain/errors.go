package domain

import "errors"

var (
	// ErrInvalidAmount is returned when a requested amount is negative.
	ErrInvalidAmount = errors.New("amount must not be negative")

	// ErrInsufficientFunds is returned when a withdrawal or transfer
	// source lacks the funds to cover the requested amount.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrUnknownDestination is returned when a transfer target card
	// number is not registered with the ledger. No mutation occurs.
	ErrUnknownDestination = errors.New("unknown destination card")

	// ErrNotAuthenticated is returned when a balance-affecting operation
	// is invoked without an authenticated session. This is a protocol
	// usage error by the caller, distinct from a rejected PIN.
	ErrNotAuthenticated = errors.New("no authenticated session")

	// ErrNoCard is returned when PIN entry is attempted while no card
	// is inserted.
	ErrNoCard = errors.New("no card inserted")

	// ErrIncorrectPIN is returned when PIN entry does not match the
	// card's stored PIN. Expected and retryable; the card stays inserted.
	ErrIncorrectPIN = errors.New("incorrect PIN")

	// ErrUnknownCard is returned when the ledger is asked to resolve a
	// card it does not hold. After a validated PIN this indicates an
	// internal consistency fault, not a user error.
	ErrUnknownCard = errors.New("unknown card")
)
