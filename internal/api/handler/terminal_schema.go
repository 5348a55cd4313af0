package handler

// --- Request types ---

type insertCardRequest struct {
	CardNumber string `json:"card_number" validate:"required"`
}

type enterPINRequest struct {
	PIN string `json:"pin" validate:"required"`
}

// amountRequest carries the amount for deposits and withdrawals, in minor
// currency units. Sign checks live in the domain so the error taxonomy is
// exercised, not duplicated here.
type amountRequest struct {
	Amount int64 `json:"amount"`
}

type transferRequest struct {
	ToCardNumber string `json:"to_card_number" validate:"required"`
	Amount       int64  `json:"amount"`
}

// --- Response types ---

type stateResponse struct {
	State string `json:"state"`
}

type sessionResponse struct {
	Token string `json:"token"`
	State string `json:"state"`
}

type balanceResponse struct {
	Balance int64 `json:"balance"`
}
