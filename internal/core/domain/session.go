package domain

// SessionState represents the terminal session lifecycle.
type SessionState string

const (
	// StateIdle means no card is present.
	StateIdle SessionState = "idle"
	// StateCardPresented means a card is inserted but the PIN has not
	// been validated yet.
	StateCardPresented SessionState = "card_presented"
	// StateAuthenticated means the PIN was validated and balance
	// operations are permitted.
	StateAuthenticated SessionState = "authenticated"
)

// Authenticated reports whether balance-affecting operations are allowed.
func (s SessionState) Authenticated() bool {
	return s == StateAuthenticated
}
