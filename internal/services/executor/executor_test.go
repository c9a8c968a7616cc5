package executor

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/thecrazygm/automarket/internal/entity"
)

// fakeSubmitter records every submit call and can fail on demand.
type fakeSubmitter struct {
	trades    int
	transfers int
	stakes    int
	err       error

	lastSymbol    string
	lastAmount    decimal.Decimal
	lastPrice     decimal.Decimal
	lastDirection entity.Direction
}

func (f *fakeSubmitter) SubmitTrade(_ context.Context, _, symbol string, amount, price decimal.Decimal, direction entity.Direction) (string, error) {
	f.trades++
	f.lastSymbol = symbol
	f.lastAmount = amount
	f.lastPrice = price
	f.lastDirection = direction
	return "txid", f.err
}

func (f *fakeSubmitter) SubmitTransfer(_ context.Context, _, _, symbol string, amount decimal.Decimal, _ string) (string, error) {
	f.transfers++
	f.lastSymbol = symbol
	f.lastAmount = amount
	return "txid", f.err
}

func (f *fakeSubmitter) SubmitStake(_ context.Context, _, symbol string, amount decimal.Decimal) (string, error) {
	f.stakes++
	f.lastSymbol = symbol
	f.lastAmount = amount
	return "txid", f.err
}

func bidAt(price float64) entity.BidPrice {
	quote := entity.MarketQuote{HighestBid: decimal.NewFromFloat(price)}
	bid, _ := quote.Bid()
	return bid
}

func askAt(price float64) entity.AskPrice {
	quote := entity.MarketQuote{LowestAsk: decimal.NewFromFloat(price)}
	ask, _ := quote.Ask()
	return ask
}

func TestSellRejectsZeroPrice(t *testing.T) {
	submitter := &fakeSubmitter{}
	e := NewExecutor(submitter, false, 0, zap.NewNop())

	// the zero value BidPrice is what a caller gets when no buyer exists
	ok := e.Sell(context.Background(), "alice", "LEO", decimal.NewFromInt(5), entity.BidPrice{})
	assert.False(t, ok)
	assert.Zero(t, submitter.trades, "the submit capability must never be reached")
}

func TestSellDryRunNeverTouchesNetwork(t *testing.T) {
	submitter := &fakeSubmitter{}
	e := NewExecutor(submitter, true, 0, zap.NewNop())

	ok := e.Sell(context.Background(), "alice", "LEO", decimal.NewFromInt(5), bidAt(2))
	assert.True(t, ok)
	assert.Zero(t, submitter.trades)
}

func TestSellLive(t *testing.T) {
	submitter := &fakeSubmitter{}
	e := NewExecutor(submitter, false, 0, zap.NewNop())

	ok := e.Sell(context.Background(), "alice", "LEO", decimal.NewFromInt(5), bidAt(2))
	assert.True(t, ok)
	assert.Equal(t, 1, submitter.trades)
	assert.Equal(t, "LEO", submitter.lastSymbol)
	assert.Equal(t, entity.DirectionSell, submitter.lastDirection)
	assert.True(t, submitter.lastAmount.Equal(decimal.NewFromInt(5)))
	assert.True(t, submitter.lastPrice.Equal(decimal.NewFromInt(2)))
}

func TestSellSubmitFailureIsFalseNotPanic(t *testing.T) {
	submitter := &fakeSubmitter{err: errors.New("insufficient resource credits")}
	e := NewExecutor(submitter, false, 0, zap.NewNop())

	ok := e.Sell(context.Background(), "alice", "LEO", decimal.NewFromInt(5), bidAt(2))
	assert.False(t, ok)
	assert.Equal(t, 1, submitter.trades)
}

func TestBuyRejectsZeroPrice(t *testing.T) {
	submitter := &fakeSubmitter{}
	e := NewExecutor(submitter, false, 0, zap.NewNop())

	ok := e.Buy(context.Background(), "alice", "LEO", decimal.NewFromInt(5), entity.AskPrice{})
	assert.False(t, ok)
	assert.Zero(t, submitter.trades)
}

func TestBuyLive(t *testing.T) {
	submitter := &fakeSubmitter{}
	e := NewExecutor(submitter, false, 0, zap.NewNop())

	ok := e.Buy(context.Background(), "alice", "LEO", decimal.NewFromInt(5), askAt(3))
	assert.True(t, ok)
	assert.Equal(t, 1, submitter.trades)
	assert.Equal(t, entity.DirectionBuy, submitter.lastDirection)
}

func TestTransferDryRunAndLive(t *testing.T) {
	submitter := &fakeSubmitter{}

	dry := NewExecutor(submitter, true, 0, zap.NewNop())
	assert.True(t, dry.Transfer(context.Background(), "alice", "bob", "LEO", decimal.NewFromInt(1), "memo"))
	assert.Zero(t, submitter.transfers)

	live := NewExecutor(submitter, false, 0, zap.NewNop())
	assert.True(t, live.Transfer(context.Background(), "alice", "bob", "LEO", decimal.NewFromInt(1), "memo"))
	assert.Equal(t, 1, submitter.transfers)
}

func TestStakeDryRunAndLive(t *testing.T) {
	submitter := &fakeSubmitter{}

	dry := NewExecutor(submitter, true, 0, zap.NewNop())
	assert.True(t, dry.Stake(context.Background(), "alice", "LEO", decimal.NewFromInt(2)))
	assert.Zero(t, submitter.stakes)

	live := NewExecutor(submitter, false, 0, zap.NewNop())
	assert.True(t, live.Stake(context.Background(), "alice", "LEO", decimal.NewFromInt(2)))
	assert.Equal(t, 1, submitter.stakes)

	submitter.err = errors.New("contract rejected")
	assert.False(t, live.Stake(context.Background(), "alice", "LEO", decimal.NewFromInt(2)))
}

func TestNegativeSettleDelaySelectsDefault(t *testing.T) {
	e := NewExecutor(&fakeSubmitter{}, false, -1, zap.NewNop())
	assert.Equal(t, DefaultSettleDelay, e.settleDelay)
}
