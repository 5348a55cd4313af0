package domain

// Account holds a single balance in minor currency units (e.g. cents).
// The balance never goes negative: every mutation validates first and
// applies second, so a failed operation leaves the balance untouched.
type Account struct {
	balance int64
}

// NewAccount creates an account with the given opening balance.
// Callers are expected to hand in a non-negative value; the customer
// loader enforces this before any account is constructed.
func NewAccount(balance int64) *Account {
	return &Account{balance: balance}
}

// Balance returns the current balance. Pure query, no side effects.
func (a *Account) Balance() int64 {
	return a.balance
}

// Deposit adds amount to the balance. Amount must be non-negative.
func (a *Account) Deposit(amount int64) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	a.balance += amount
	return nil
}

// Withdraw subtracts amount from the balance. Amount must be non-negative
// and must not exceed the current balance.
func (a *Account) Withdraw(amount int64) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	if amount > a.balance {
		return ErrInsufficientFunds
	}
	a.balance -= amount
	return nil
}
