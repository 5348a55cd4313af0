package service

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/onebank/atm-terminal/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stub ledger
// ---------------------------------------------------------------------------

type stubLedger struct {
	pins     map[string]string
	accounts map[string]*domain.Account
	// vanished makes Account() fail for a card that HasCard still reports,
	// simulating an entry disappearing between the existence check and the
	// credit step of a transfer.
	vanished map[string]bool
}

func newStubLedger() *stubLedger {
	return &stubLedger{
		pins:     make(map[string]string),
		accounts: make(map[string]*domain.Account),
		vanished: make(map[string]bool),
	}
}

func (l *stubLedger) AddCard(cardNumber, pin string, initialBalance int64) {
	l.pins[cardNumber] = pin
	l.accounts[cardNumber] = domain.NewAccount(initialBalance)
}

func (l *stubLedger) ValidatePIN(cardNumber, pin string) bool {
	stored, ok := l.pins[cardNumber]
	return ok && stored == pin
}

func (l *stubLedger) HasCard(cardNumber string) bool {
	_, ok := l.accounts[cardNumber]
	return ok
}

func (l *stubLedger) Account(cardNumber string) (*domain.Account, error) {
	if l.vanished[cardNumber] {
		return nil, domain.ErrUnknownCard
	}
	a, ok := l.accounts[cardNumber]
	if !ok {
		return nil, domain.ErrUnknownCard
	}
	return a, nil
}

func (l *stubLedger) balance(t *testing.T, cardNumber string) int64 {
	t.Helper()
	a, ok := l.accounts[cardNumber]
	if !ok {
		t.Fatalf("no account for %s", cardNumber)
	}
	return a.Balance()
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

const testSecret = "test-secret"

func newTestTerminal(ledger *stubLedger) *TerminalService {
	return NewTerminalService(ledger, testSecret, 0, zerolog.Nop())
}

func twoCardLedger() *stubLedger {
	ledger := newStubLedger()
	ledger.AddCard("C1", "1234", 0)
	ledger.AddCard("C2", "5678", 0)
	return ledger
}

func authenticate(t *testing.T, s *TerminalService, card, pin string) {
	t.Helper()
	ctx := context.Background()
	s.InsertCard(ctx, card)
	if _, err := s.EnterPIN(ctx, pin); err != nil {
		t.Fatalf("authentication failed for %s: %v", card, err)
	}
}

// ---------------------------------------------------------------------------
// Session state machine
// ---------------------------------------------------------------------------

func TestInsertCard_AlwaysSucceedsAndPresentsCard(t *testing.T) {
	s := newTestTerminal(twoCardLedger())

	state := s.InsertCard(context.Background(), "NOT-REGISTERED")
	if state != domain.StateCardPresented {
		t.Fatalf("expected card_presented, got %s", state)
	}
}

func TestEnterPIN_Success_AuthenticatesAndIssuesToken(t *testing.T) {
	s := newTestTerminal(twoCardLedger())
	ctx := context.Background()

	s.InsertCard(ctx, "C1")
	token, err := s.EnterPIN(ctx, "1234")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if s.State() != domain.StateAuthenticated {
		t.Fatalf("expected authenticated, got %s", s.State())
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	if err != nil || !tkn.Valid {
		t.Fatalf("token does not parse: %v", err)
	}
	if claims["card_number"] != "C1" {
		t.Fatalf("expected card_number claim C1, got %v", claims["card_number"])
	}
}

func TestEnterPIN_WrongPIN_KeepsCardPresented(t *testing.T) {
	ledger := twoCardLedger()
	s := newTestTerminal(ledger)
	ctx := context.Background()

	s.InsertCard(ctx, "C1")
	_, err := s.EnterPIN(ctx, "5432")
	if !errors.Is(err, domain.ErrIncorrectPIN) {
		t.Fatalf("expected ErrIncorrectPIN, got %v", err)
	}
	if s.State() != domain.StateCardPresented {
		t.Fatalf("expected card_presented after wrong PIN, got %s", s.State())
	}

	// A privileged call after the rejected PIN must fail without mutation.
	if _, err := s.Balance(ctx); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if got := ledger.balance(t, "C1"); got != 0 {
		t.Fatalf("balance changed after rejected PIN: %d", got)
	}
}

func TestEnterPIN_Retryable_AfterWrongPIN(t *testing.T) {
	s := newTestTerminal(twoCardLedger())
	ctx := context.Background()

	s.InsertCard(ctx, "C1")
	if _, err := s.EnterPIN(ctx, "0000"); err == nil {
		t.Fatal("expected wrong PIN to fail")
	}
	if _, err := s.EnterPIN(ctx, "1234"); err != nil {
		t.Fatalf("retry with correct PIN failed: %v", err)
	}
}

func TestEnterPIN_WithoutCard(t *testing.T) {
	s := newTestTerminal(twoCardLedger())

	_, err := s.EnterPIN(context.Background(), "1234")
	if !errors.Is(err, domain.ErrNoCard) {
		t.Fatalf("expected ErrNoCard, got %v", err)
	}
}

func TestOperations_RequireAuthentication(t *testing.T) {
	ledger := twoCardLedger()
	s := newTestTerminal(ledger)
	ctx := context.Background()

	assertGated := func(stage string) {
		t.Helper()
		ops := map[string]func() error{
			"balance":  func() error { _, err := s.Balance(ctx); return err },
			"deposit":  func() error { _, err := s.Deposit(ctx, 10); return err },
			"withdraw": func() error { _, err := s.Withdraw(ctx, 10); return err },
			"transfer": func() error { _, err := s.Transfer(ctx, "C2", 10); return err },
		}
		for name, op := range ops {
			if err := op(); !errors.Is(err, domain.ErrNotAuthenticated) {
				t.Fatalf("%s: %s should require authentication, got %v", stage, name, err)
			}
		}
		if got := ledger.balance(t, "C1"); got != 0 {
			t.Fatalf("%s: mutation happened while gated", stage)
		}
	}

	assertGated("idle")

	s.InsertCard(ctx, "C1")
	assertGated("card_presented")
}

func TestInsertCard_ResetsAuthenticatedSession(t *testing.T) {
	s := newTestTerminal(twoCardLedger())
	ctx := context.Background()

	authenticate(t, s, "C1", "1234")
	s.InsertCard(ctx, "C2")

	if s.State() != domain.StateCardPresented {
		t.Fatalf("expected card_presented after re-insertion, got %s", s.State())
	}
	if _, err := s.Balance(ctx); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated after re-insertion, got %v", err)
	}
}

func TestEjectCard_ReturnsToIdleFromAnyState(t *testing.T) {
	s := newTestTerminal(twoCardLedger())
	ctx := context.Background()

	authenticate(t, s, "C1", "1234")
	if state := s.EjectCard(ctx); state != domain.StateIdle {
		t.Fatalf("expected idle after eject, got %s", state)
	}
	if _, ok := s.ActiveCard(); ok {
		t.Fatal("no card should be active after eject")
	}
}

// ---------------------------------------------------------------------------
// Balance operations
// ---------------------------------------------------------------------------

func TestDeposit_IncreasesBalance(t *testing.T) {
	s := newTestTerminal(twoCardLedger())
	ctx := context.Background()

	authenticate(t, s, "C1", "1234")
	balance, err := s.Deposit(ctx, 50000)
	if err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if balance != 50000 {
		t.Fatalf("expected balance 50000, got %d", balance)
	}
}

func TestDeposit_NegativeAmount(t *testing.T) {
	ledger := twoCardLedger()
	s := newTestTerminal(ledger)

	authenticate(t, s, "C1", "1234")
	_, err := s.Deposit(context.Background(), -1)
	if !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if got := ledger.balance(t, "C1"); got != 0 {
		t.Fatalf("balance changed on failed deposit: %d", got)
	}
}

func TestWithdraw_InsufficientFunds(t *testing.T) {
	ledger := twoCardLedger()
	s := newTestTerminal(ledger)

	authenticate(t, s, "C1", "1234")
	_, err := s.Withdraw(context.Background(), 100)
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if got := ledger.balance(t, "C1"); got != 0 {
		t.Fatalf("balance changed on failed withdrawal: %d", got)
	}
}

func TestWithdraw_DecreasesBalance(t *testing.T) {
	ledger := newStubLedger()
	ledger.AddCard("C1", "1234", 300)
	s := newTestTerminal(ledger)

	authenticate(t, s, "C1", "1234")
	balance, err := s.Withdraw(context.Background(), 120)
	if err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if balance != 180 {
		t.Fatalf("expected balance 180, got %d", balance)
	}
}

// ---------------------------------------------------------------------------
// Transfer
// ---------------------------------------------------------------------------

func TestTransfer_MovesFundsExactly(t *testing.T) {
	ledger := twoCardLedger()
	s := newTestTerminal(ledger)
	ctx := context.Background()

	authenticate(t, s, "C1", "1234")
	if _, err := s.Deposit(ctx, 50000); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	balance, err := s.Transfer(ctx, "C2", 50000)
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected source balance 0, got %d", balance)
	}
	if got := ledger.balance(t, "C2"); got != 50000 {
		t.Fatalf("expected destination balance 50000, got %d", got)
	}
}

func TestTransfer_UnknownDestination_NoMutation(t *testing.T) {
	ledger := newStubLedger()
	ledger.AddCard("C1", "1234", 100)
	s := newTestTerminal(ledger)

	authenticate(t, s, "C1", "1234")
	_, err := s.Transfer(context.Background(), "UNKNOWN", 10)
	if !errors.Is(err, domain.ErrUnknownDestination) {
		t.Fatalf("expected ErrUnknownDestination, got %v", err)
	}
	if got := ledger.balance(t, "C1"); got != 100 {
		t.Fatalf("source balance changed: %d", got)
	}
}

func TestTransfer_InsufficientFunds_NoMutation(t *testing.T) {
	ledger := newStubLedger()
	ledger.AddCard("C1", "1234", 30)
	ledger.AddCard("C2", "5678", 5)
	s := newTestTerminal(ledger)

	authenticate(t, s, "C1", "1234")
	_, err := s.Transfer(context.Background(), "C2", 40)
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if got := ledger.balance(t, "C1"); got != 30 {
		t.Fatalf("source balance changed: %d", got)
	}
	if got := ledger.balance(t, "C2"); got != 5 {
		t.Fatalf("destination balance changed: %d", got)
	}
}

func TestTransfer_NegativeAmount(t *testing.T) {
	ledger := twoCardLedger()
	s := newTestTerminal(ledger)

	authenticate(t, s, "C1", "1234")
	_, err := s.Transfer(context.Background(), "C2", -10)
	if !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestTransfer_DestinationVanishes_RollsBackSource(t *testing.T) {
	ledger := newStubLedger()
	ledger.AddCard("C1", "1234", 500)
	ledger.AddCard("C2", "5678", 0)
	// HasCard still reports C2, but resolution fails: the entry vanished
	// between the existence check and the credit.
	ledger.vanished["C2"] = true
	s := newTestTerminal(ledger)

	authenticate(t, s, "C1", "1234")
	_, err := s.Transfer(context.Background(), "C2", 200)
	if !errors.Is(err, domain.ErrUnknownDestination) {
		t.Fatalf("expected ErrUnknownDestination, got %v", err)
	}
	if got := ledger.balance(t, "C1"); got != 500 {
		t.Fatalf("debit was not rolled back, source balance %d", got)
	}
}

func TestTransfer_ToSelf_NetsToZero(t *testing.T) {
	ledger := newStubLedger()
	ledger.AddCard("C1", "1234", 70)
	s := newTestTerminal(ledger)

	authenticate(t, s, "C1", "1234")
	balance, err := s.Transfer(context.Background(), "C1", 50)
	if err != nil {
		t.Fatalf("self transfer failed: %v", err)
	}
	if balance != 70 {
		t.Fatalf("expected unchanged balance 70, got %d", balance)
	}
}

// ---------------------------------------------------------------------------
// Internal fault
// ---------------------------------------------------------------------------

func TestOperations_AuthenticatedCardVanishes_InternalFault(t *testing.T) {
	ledger := twoCardLedger()
	s := newTestTerminal(ledger)

	authenticate(t, s, "C1", "1234")
	ledger.vanished["C1"] = true

	_, err := s.Balance(context.Background())
	if !errors.Is(err, domain.ErrUnknownCard) {
		t.Fatalf("expected wrapped ErrUnknownCard, got %v", err)
	}
}
