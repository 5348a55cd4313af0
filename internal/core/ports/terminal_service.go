package ports

import (
	"context"

	"github.com/onebank/atm-terminal/internal/core/domain"
)

// TerminalService defines the use-case operations of one cash-machine
// terminal. The terminal tracks a single session at a time; every
// operation runs to completion before the next is accepted.
type TerminalService interface {
	// InsertCard starts a new session for the card. It always succeeds
	// and unconditionally discards any prior session, authenticated or not.
	InsertCard(ctx context.Context, cardNumber string) domain.SessionState

	// EnterPIN validates the PIN for the inserted card. On success the
	// session becomes authenticated and a signed session token is
	// returned. On a mismatch it returns domain.ErrIncorrectPIN and the
	// card stays inserted so the PIN can be retried.
	EnterPIN(ctx context.Context, pin string) (string, error)

	// EjectCard returns the terminal to the idle state from any state.
	EjectCard(ctx context.Context) domain.SessionState

	// Balance returns the authenticated account's balance.
	Balance(ctx context.Context) (int64, error)

	// Deposit adds amount to the authenticated account and returns the
	// resulting balance.
	Deposit(ctx context.Context, amount int64) (int64, error)

	// Withdraw subtracts amount from the authenticated account and
	// returns the resulting balance.
	Withdraw(ctx context.Context, amount int64) (int64, error)

	// Transfer moves amount from the authenticated account to the
	// account owned by toCardNumber and returns the source's resulting
	// balance. The effect is all-or-nothing: either both balances move
	// or neither does.
	Transfer(ctx context.Context, toCardNumber string, amount int64) (int64, error)

	// State returns the current session state.
	State() domain.SessionState

	// ActiveCard returns the card number bound to the current session
	// and whether that session is authenticated.
	ActiveCard() (string, bool)
}
