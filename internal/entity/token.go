// Package entity defines core data structures used throughout the engine.
package entity

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TokenBalance is a point-in-time balance snapshot for one token on one
// account. Balances are fetched fresh per account per run and never cached.
type TokenBalance struct {
	// Symbol token symbol, e.g. SWAP.HIVE.
	Symbol string
	// Amount liquid balance, non-negative.
	Amount decimal.Decimal
}

// String returns the string representation.
func (b TokenBalance) String() string {
	return fmt.Sprintf("%s %s", b.Amount.String(), b.Symbol)
}
