package entity

import "github.com/shopspring/decimal"

// BookSide selects one side of a token order book.
type BookSide int

const (
	// SideBid is the buy book: resting orders from buyers.
	SideBid BookSide = iota
	// SideAsk is the sell book: resting orders from sellers.
	SideAsk
)

// String returns the string representation.
func (s BookSide) String() string {
	switch s {
	case SideBid:
		return "bid"
	case SideAsk:
		return "ask"
	default:
		return "unknown"
	}
}

// OrderBookLevel is a single resting order in a token order book.
type OrderBookLevel struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// MarketQuote holds the best prices found by scanning all levels of both
// sides of a token order book. A zero side means no qualifying orders exist;
// zero is never a valid execution price.
type MarketQuote struct {
	HighestBid decimal.Decimal
	LowestAsk  decimal.Decimal
}

// Bid returns the highest bid tagged as a bid-resolved price. The second
// return is false when no buyer exists.
func (q MarketQuote) Bid() (BidPrice, bool) {
	if q.HighestBid.LessThanOrEqual(decimal.Zero) {
		return BidPrice{}, false
	}
	return BidPrice{value: q.HighestBid}, true
}

// Ask returns the lowest ask tagged as an ask-resolved price. The second
// return is false when no seller exists.
func (q MarketQuote) Ask() (AskPrice, bool) {
	if q.LowestAsk.LessThanOrEqual(decimal.Zero) {
		return AskPrice{}, false
	}
	return AskPrice{value: q.LowestAsk}, true
}

// BidPrice is a price resolved from the buy side of the book. Sell orders
// must be priced with a BidPrice so the lowest ask cannot be substituted for
// the highest bid by accident.
type BidPrice struct {
	value decimal.Decimal
}

// Decimal returns the underlying price. Zero for the zero value.
func (p BidPrice) Decimal() decimal.Decimal {
	return p.value
}

// AskPrice is a price resolved from the sell side of the book.
type AskPrice struct {
	value decimal.Decimal
}

// Decimal returns the underlying price. Zero for the zero value.
func (p AskPrice) Decimal() decimal.Decimal {
	return p.value
}
