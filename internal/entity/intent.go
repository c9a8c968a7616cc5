package entity

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Direction represents the side of a trade intent.
type Direction int

const (
	// DirectionSell sells the token for the settlement token.
	DirectionSell Direction = iota
	// DirectionBuy buys the token with the settlement token.
	DirectionBuy
)

// String returns the string representation.
func (d Direction) String() string {
	switch d {
	case DirectionSell:
		return "sell"
	case DirectionBuy:
		return "buy"
	default:
		return "unknown"
	}
}

// TradeIntent is one unit of work: a single token operation on behalf of one
// account. It is built by the balance filter with the price still unresolved,
// priced by the batch runner and consumed immediately by the executor.
type TradeIntent struct {
	Account   string
	Symbol    string
	Amount    decimal.Decimal
	Price     decimal.Decimal
	Direction Direction
}

// String returns the string representation.
func (i TradeIntent) String() string {
	return fmt.Sprintf("%s %s %s for %s at %s", i.Direction, i.Amount.String(), i.Symbol, i.Account, i.Price.String())
}
