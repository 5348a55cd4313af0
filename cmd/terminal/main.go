// Command terminal runs the interactive console front-end: a prompt loop
// that drives one cash-machine session directly, without the HTTP layer.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/onebank/atm-terminal/internal/core/service"
	"github.com/onebank/atm-terminal/internal/infrastructure/config"
	"github.com/onebank/atm-terminal/internal/infrastructure/loader"
	"github.com/onebank/atm-terminal/internal/infrastructure/memory"
	"github.com/onebank/atm-terminal/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{Level: "error", Pretty: true})

	ledger := memory.NewLedger()
	if _, err := loader.LoadCustomers(cfg.CustomersFile, ledger); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	terminal := service.NewTerminalService(ledger, cfg.JWTSecret, cfg.TokenTTL, log)
	ctx := context.Background()
	in := bufio.NewScanner(os.Stdin)

	for {
		card := prompt(in, "Insert card (card number): ")
		if card == "" {
			return
		}
		terminal.InsertCard(ctx, card)

		pin := prompt(in, "Enter PIN: ")
		if _, err := terminal.EnterPIN(ctx, pin); err != nil {
			fmt.Println("error:", err)
			continue
		}
		fmt.Println("PIN accepted.")

		menu(ctx, in, terminal)
		terminal.EjectCard(ctx)
	}
}

func menu(ctx context.Context, in *bufio.Scanner, terminal *service.TerminalService) {
	for {
		fmt.Println("\nSelect an option:")
		fmt.Println("[1] Deposit")
		fmt.Println("[2] Withdraw")
		fmt.Println("[3] Balance")
		fmt.Println("[4] Transfer")
		fmt.Println("[5] Eject card")

		switch prompt(in, "Enter choice: ") {
		case "1":
			amount, ok := promptAmount(in, "Deposit amount: ")
			if !ok {
				continue
			}
			report(terminal.Deposit(ctx, amount))
		case "2":
			amount, ok := promptAmount(in, "Withdrawal amount: ")
			if !ok {
				continue
			}
			report(terminal.Withdraw(ctx, amount))
		case "3":
			report(terminal.Balance(ctx))
		case "4":
			to := prompt(in, "Destination card number: ")
			amount, ok := promptAmount(in, "Transfer amount: ")
			if !ok {
				continue
			}
			report(terminal.Transfer(ctx, to, amount))
		case "5":
			fmt.Println("Card ejected. Insert a new card to start over.")
			return
		case "":
			return
		default:
			fmt.Println("Invalid option.")
		}
	}
}

func prompt(in *bufio.Scanner, label string) string {
	fmt.Print(label)
	if !in.Scan() {
		return ""
	}
	return strings.TrimSpace(in.Text())
}

func promptAmount(in *bufio.Scanner, label string) (int64, bool) {
	raw := prompt(in, label)
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		fmt.Println("Invalid amount.")
		return 0, false
	}
	return amount, true
}

func report(balance int64, err error) {
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Printf("Current balance: $%d\n", balance)
}
