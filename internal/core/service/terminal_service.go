package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/onebank/atm-terminal/internal/core/domain"
	"github.com/onebank/atm-terminal/internal/core/ports"
)

// TerminalService drives a single cash-machine session against the ledger.
//
// A mutex serializes every operation so each runs to completion before the
// next is accepted, and Transfer performs its debit and credit inside one
// critical section. Accounts are resolved by card number on every use
// rather than cached across calls, so the session never holds a handle
// that could go stale.
type TerminalService struct {
	ledger    ports.Ledger
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger

	mu         sync.Mutex
	state      domain.SessionState
	cardNumber string
}

func NewTerminalService(ledger ports.Ledger, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *TerminalService {
	if tokenTTL <= 0 {
		tokenTTL = 15 * time.Minute
	}
	return &TerminalService{
		ledger:    ledger,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		log:       log,
		state:     domain.StateIdle,
	}
}

// InsertCard binds the session to cardNumber. Always succeeds and discards
// any prior session, even an authenticated one.
func (s *TerminalService) InsertCard(_ context.Context, cardNumber string) domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.StateAuthenticated {
		s.log.Info().Str("card", s.cardNumber).Msg("authenticated session discarded by new card")
	}
	s.cardNumber = cardNumber
	s.state = domain.StateCardPresented

	s.log.Debug().Str("card", cardNumber).Msg("card inserted")
	return s.state
}

// EnterPIN validates the PIN for the inserted card and, on success,
// authenticates the session and returns a signed session token.
func (s *TerminalService) EnterPIN(_ context.Context, pin string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.StateIdle {
		return "", domain.ErrNoCard
	}

	if !s.ledger.ValidatePIN(s.cardNumber, pin) {
		s.log.Info().Str("card", s.cardNumber).Msg("PIN rejected")
		return "", domain.ErrIncorrectPIN
	}

	// The PIN just validated, so the card must resolve. A failure here is
	// an internal consistency fault, not a user error.
	if _, err := s.ledger.Account(s.cardNumber); err != nil {
		s.log.Error().Err(err).Str("card", s.cardNumber).Msg("validated card failed to resolve")
		return "", fmt.Errorf("enter pin: resolve account: %w", err)
	}

	token, err := s.generateToken(s.cardNumber)
	if err != nil {
		return "", fmt.Errorf("enter pin: sign token: %w", err)
	}

	s.state = domain.StateAuthenticated
	s.log.Info().Str("card", s.cardNumber).Msg("session authenticated")
	return token, nil
}

// EjectCard returns the terminal to the idle state from any state.
func (s *TerminalService) EjectCard(_ context.Context) domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cardNumber != "" {
		s.log.Debug().Str("card", s.cardNumber).Msg("card ejected")
	}
	s.cardNumber = ""
	s.state = domain.StateIdle
	return s.state
}

// Balance returns the authenticated account's balance.
func (s *TerminalService) Balance(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.authenticatedAccount()
	if err != nil {
		return 0, err
	}
	return account.Balance(), nil
}

// Deposit adds amount to the authenticated account.
func (s *TerminalService) Deposit(_ context.Context, amount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.authenticatedAccount()
	if err != nil {
		return 0, err
	}
	if err := account.Deposit(amount); err != nil {
		return 0, err
	}

	s.log.Info().Str("card", s.cardNumber).Int64("amount", amount).Msg("deposit")
	return account.Balance(), nil
}

// Withdraw subtracts amount from the authenticated account.
func (s *TerminalService) Withdraw(_ context.Context, amount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.authenticatedAccount()
	if err != nil {
		return 0, err
	}
	if err := account.Withdraw(amount); err != nil {
		return 0, err
	}

	s.log.Info().Str("card", s.cardNumber).Int64("amount", amount).Msg("withdrawal")
	return account.Balance(), nil
}

// Transfer moves amount from the authenticated account to toCardNumber.
// The destination is checked before any mutation; the debit happens first
// and the credit second, and if the credit cannot complete the debit is
// reversed, so either both balances move or neither does.
func (s *TerminalService) Transfer(_ context.Context, toCardNumber string, amount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	source, err := s.authenticatedAccount()
	if err != nil {
		return 0, err
	}

	if !s.ledger.HasCard(toCardNumber) {
		return 0, domain.ErrUnknownDestination
	}

	if err := source.Withdraw(amount); err != nil {
		return 0, err
	}

	destination, err := s.ledger.Account(toCardNumber)
	if err != nil {
		s.rollback(source, amount)
		return 0, fmt.Errorf("transfer: destination vanished: %w", domain.ErrUnknownDestination)
	}
	if err := destination.Deposit(amount); err != nil {
		s.rollback(source, amount)
		return 0, fmt.Errorf("transfer: credit destination: %w", err)
	}

	s.log.Info().
		Str("card", s.cardNumber).
		Str("to_card", toCardNumber).
		Int64("amount", amount).
		Msg("transfer completed")
	return source.Balance(), nil
}

// State returns the current session state.
func (s *TerminalService) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ActiveCard returns the card bound to the session and whether the
// session is authenticated.
func (s *TerminalService) ActiveCard() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cardNumber, s.state == domain.StateAuthenticated
}

// authenticatedAccount resolves the session's account. Must be called
// with the mutex held.
func (s *TerminalService) authenticatedAccount() (*domain.Account, error) {
	if s.state != domain.StateAuthenticated {
		return nil, domain.ErrNotAuthenticated
	}
	account, err := s.ledger.Account(s.cardNumber)
	if err != nil {
		// The session authenticated against this card; losing it now is
		// an internal consistency fault.
		s.log.Error().Err(err).Str("card", s.cardNumber).Msg("authenticated card failed to resolve")
		return nil, fmt.Errorf("resolve session account: %w", err)
	}
	return account, nil
}

// rollback re-credits the source after a failed transfer credit. A deposit
// of a previously withdrawn amount cannot fail; if it somehow does, the
// invariant is broken and we log at error level.
func (s *TerminalService) rollback(source *domain.Account, amount int64) {
	if err := source.Deposit(amount); err != nil {
		s.log.Error().Err(err).Int64("amount", amount).Msg("transfer rollback failed")
	}
}

func (s *TerminalService) generateToken(cardNumber string) (string, error) {
	claims := jwt.MapClaims{
		"card_number": cardNumber,
		"exp":         time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
