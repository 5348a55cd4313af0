// Package memory provides the in-memory ledger backing the terminal.
// All balances live for the process lifetime only; nothing is written back
// to the customer file.
package memory

import (
	"crypto/subtle"
	"sync"

	"github.com/onebank/atm-terminal/internal/core/domain"
)

type cardEntry struct {
	pin     string
	account *domain.Account
}

// Ledger maps card numbers to their PIN and account. Writes happen only
// during initial population; the RWMutex keeps later reads safe against
// any future mutation path.
type Ledger struct {
	mu    sync.RWMutex
	cards map[string]*cardEntry
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{cards: make(map[string]*cardEntry)}
}

// AddCard registers a card with its PIN and a fresh account. Re-adding a
// card number replaces the previous entry and its account.
func (l *Ledger) AddCard(cardNumber, pin string, initialBalance int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cards[cardNumber] = &cardEntry{
		pin:     pin,
		account: domain.NewAccount(initialBalance),
	}
}

// ValidatePIN reports whether pin matches the card's stored PIN. Unknown
// cards validate to false. The comparison is constant-time so response
// timing does not distinguish a wrong PIN from a near-miss.
func (l *Ledger) ValidatePIN(cardNumber, pin string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entry, ok := l.cards[cardNumber]
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(entry.pin), []byte(pin)) == 1
}

// HasCard reports whether the card number is registered.
func (l *Ledger) HasCard(cardNumber string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.cards[cardNumber]
	return ok
}

// Account resolves the account owned by the card.
func (l *Ledger) Account(cardNumber string) (*domain.Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entry, ok := l.cards[cardNumber]
	if !ok {
		return nil, domain.ErrUnknownCard
	}
	return entry.account, nil
}
