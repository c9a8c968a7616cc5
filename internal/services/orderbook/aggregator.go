// Package orderbook resolves the true best bid and ask for a token by
// draining its full order book through a paginated exchange API.
package orderbook

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/thecrazygm/automarket/internal/entity"
)

// DefaultBatchSize is how many levels are requested per page.
const DefaultBatchSize = 100

// BookPager fetches one page of a token order book.
type BookPager interface {
	OrderBookPage(ctx context.Context, symbol string, side entity.BookSide, limit, offset int) ([]entity.OrderBookLevel, error)
}

// Aggregator computes best prices from full order books. A single-page
// top-of-book query misprices thinly traded tokens when the API returns
// unsorted or partial pages, so every level of both sides is scanned.
type Aggregator struct {
	pager     BookPager
	logger    *zap.Logger
	batchSize int
}

// NewAggregator creates an Aggregator over the given pager.
func NewAggregator(pager BookPager, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		pager:     pager,
		logger:    logger,
		batchSize: DefaultBatchSize,
	}
}

// BestPrices returns the highest bid and lowest strictly-positive ask across
// all pages of both book sides. A side with no qualifying orders is zero.
// Any transport or parse error during paging is logged and surfaces as a
// zero quote: callers must treat that as "no market", not as a fatal error.
func (a *Aggregator) BestPrices(ctx context.Context, symbol string) entity.MarketQuote {
	bids, err := a.fullBook(ctx, symbol, entity.SideBid)
	if err != nil {
		a.logger.Error("failed to page buy book, treating as no market",
			zap.String("symbol", symbol),
			zap.Error(err))
		return entity.MarketQuote{HighestBid: decimal.Zero, LowestAsk: decimal.Zero}
	}

	asks, err := a.fullBook(ctx, symbol, entity.SideAsk)
	if err != nil {
		a.logger.Error("failed to page sell book, treating as no market",
			zap.String("symbol", symbol),
			zap.Error(err))
		return entity.MarketQuote{HighestBid: decimal.Zero, LowestAsk: decimal.Zero}
	}

	highestBid := decimal.Zero
	bidDepth := decimal.Zero
	for _, level := range bids {
		// absent prices arrive as zero and never win a max
		if level.Price.GreaterThan(highestBid) {
			highestBid = level.Price
		}
		bidDepth = bidDepth.Add(level.Quantity)
	}

	lowestAsk := decimal.Zero
	askDepth := decimal.Zero
	for _, level := range asks {
		// prices <= 0 are malformed listings, not valid asks
		if level.Price.LessThanOrEqual(decimal.Zero) {
			continue
		}
		if lowestAsk.IsZero() || level.Price.LessThan(lowestAsk) {
			lowestAsk = level.Price
		}
		askDepth = askDepth.Add(level.Quantity)
	}

	a.logger.Debug("order book aggregated",
		zap.String("symbol", symbol),
		zap.Int("bid_levels", len(bids)),
		zap.Int("ask_levels", len(asks)),
		zap.String("bid_depth", bidDepth.String()),
		zap.String("ask_depth", askDepth.String()),
		zap.String("highest_bid", highestBid.String()),
		zap.String("lowest_ask", lowestAsk.String()))

	return entity.MarketQuote{HighestBid: highestBid, LowestAsk: lowestAsk}
}

// fullBook pages one side starting at offset 0 until a batch comes back
// short or empty, which signals exhaustion.
func (a *Aggregator) fullBook(ctx context.Context, symbol string, side entity.BookSide) ([]entity.OrderBookLevel, error) {
	var levels []entity.OrderBookLevel
	for offset := 0; ; offset += a.batchSize {
		batch, err := a.pager.OrderBookPage(ctx, symbol, side, a.batchSize, offset)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		levels = append(levels, batch...)
		if len(batch) < a.batchSize {
			break
		}
	}
	return levels, nil
}
