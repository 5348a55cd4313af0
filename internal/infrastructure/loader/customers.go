// Package loader reads the trusted customer file that seeds the ledger.
package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/onebank/atm-terminal/internal/core/domain"
	"github.com/onebank/atm-terminal/internal/core/ports"
)

type customerFile struct {
	Customers []domain.CustomerRecord `yaml:"customers"`
}

// LoadCustomers parses the YAML customer file at path and registers every
// record with the ledger. Records with an empty card number or a negative
// opening balance are rejected so the ledger only ever holds accounts that
// satisfy the non-negative balance invariant.
func LoadCustomers(path string, ledger ports.Ledger) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("load customers: %w", err)
	}
	return loadCustomers(data, ledger)
}

func loadCustomers(data []byte, ledger ports.Ledger) (int, error) {
	var file customerFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("load customers: parse yaml: %w", err)
	}

	for i, record := range file.Customers {
		if record.CardNumber == "" {
			return 0, fmt.Errorf("load customers: record %d: missing card_number", i)
		}
		if record.InitialBalance < 0 {
			return 0, fmt.Errorf("load customers: card %s: negative initial_balance %d",
				record.CardNumber, record.InitialBalance)
		}
	}

	for _, record := range file.Customers {
		ledger.AddCard(record.CardNumber, record.PIN, record.InitialBalance)
	}
	return len(file.Customers), nil
}
