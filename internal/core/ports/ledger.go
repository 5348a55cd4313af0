package ports

import "github.com/onebank/atm-terminal/internal/core/domain"

// Ledger is the registry mapping card numbers to PINs and accounts.
// It is populated once at startup and read-only afterwards.
type Ledger interface {
	// AddCard registers a card with its PIN and a fresh account holding
	// initialBalance. Re-adding a card number overwrites the previous
	// entry; this is only acceptable during initial population.
	AddCard(cardNumber, pin string, initialBalance int64)

	// ValidatePIN reports whether pin matches the stored PIN for the
	// card. Unknown card numbers validate to false, not an error.
	ValidatePIN(cardNumber, pin string) bool

	// HasCard reports whether the card number is registered.
	HasCard(cardNumber string) bool

	// Account resolves the account owned by the card. Returns
	// domain.ErrUnknownCard when the card is not registered; callers
	// must only resolve card numbers they have validated.
	Account(cardNumber string) (*domain.Account, error)
}
