package domain

// CustomerRecord is one entry of the trusted customer file handed to the
// ledger at startup: a card number, its PIN, and the opening balance.
type CustomerRecord struct {
	CardNumber     string `yaml:"card_number"`
	PIN            string `yaml:"pin"`
	InitialBalance int64  `yaml:"initial_balance"`
}
