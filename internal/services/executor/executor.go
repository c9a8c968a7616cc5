// Package executor issues single buy, sell, transfer and stake actions under
// the authority account's signature, honoring dry-run simulation.
package executor

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/thecrazygm/automarket/internal/entity"
)

// DefaultSettleDelay is how long a live sell or buy blocks after submission
// so the exchange can match the order before the next balance snapshot.
const DefaultSettleDelay = 2 * time.Second

// Submitter broadcasts signed operations on behalf of an account. Every
// method raises on transport or validation failure.
type Submitter interface {
	SubmitTrade(ctx context.Context, account, symbol string, amount, price decimal.Decimal, direction entity.Direction) (string, error)
	SubmitTransfer(ctx context.Context, account, to, symbol string, amount decimal.Decimal, memo string) (string, error)
	SubmitStake(ctx context.Context, account, symbol string, amount decimal.Decimal) (string, error)
}

// Executor performs one operation at a time and never returns an error:
// every failure path is caught, logged and reported as false so the batch
// runner can treat false uniformly as "skip and continue".
type Executor struct {
	submitter   Submitter
	logger      *zap.Logger
	dryRun      bool
	settleDelay time.Duration
}

// NewExecutor creates an Executor. A negative settleDelay selects the
// default; zero disables the delay.
func NewExecutor(submitter Submitter, dryRun bool, settleDelay time.Duration, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settleDelay < 0 {
		settleDelay = DefaultSettleDelay
	}
	return &Executor{
		submitter:   submitter,
		logger:      logger,
		dryRun:      dryRun,
		settleDelay: settleDelay,
	}
}

// Sell places a sell order for amount of symbol at the given bid-resolved
// price. A price of zero or below is rejected before anything is submitted:
// it means either no buyer exists or the caller substituted the ask for the
// bid.
func (e *Executor) Sell(ctx context.Context, account, symbol string, amount decimal.Decimal, price entity.BidPrice) bool {
	bid := price.Decimal()
	if bid.LessThanOrEqual(decimal.Zero) {
		e.logger.Error("refusing to sell at price <= 0, invalid highest bid",
			zap.String("account", account),
			zap.String("symbol", symbol),
			zap.String("price", bid.String()))
		return false
	}

	total := amount.Mul(bid)
	e.logger.Info("selling at best bid",
		zap.String("account", account),
		zap.String("symbol", symbol),
		zap.String("amount", amount.String()),
		zap.String("price", bid.String()),
		zap.String("total", total.String()))

	if e.dryRun {
		e.logger.Info("[dry run] sell order not broadcast",
			zap.String("account", account),
			zap.String("symbol", symbol))
		return true
	}

	receipt, err := e.submitter.SubmitTrade(ctx, account, symbol, amount, bid, entity.DirectionSell)
	if err != nil {
		e.logger.Error("sell failed",
			zap.String("account", account),
			zap.String("symbol", symbol),
			zap.Error(err))
		return false
	}

	e.logger.Info("sell order placed",
		zap.String("account", account),
		zap.String("symbol", symbol),
		zap.String("receipt", receipt))
	e.settle(ctx)
	return true
}

// Buy places a buy order for amount of symbol at the given ask-resolved price.
func (e *Executor) Buy(ctx context.Context, account, symbol string, amount decimal.Decimal, price entity.AskPrice) bool {
	ask := price.Decimal()
	if ask.LessThanOrEqual(decimal.Zero) {
		e.logger.Error("refusing to buy at price <= 0, invalid lowest ask",
			zap.String("account", account),
			zap.String("symbol", symbol),
			zap.String("price", ask.String()))
		return false
	}

	total := amount.Mul(ask)
	e.logger.Info("buying at best ask",
		zap.String("account", account),
		zap.String("symbol", symbol),
		zap.String("amount", amount.String()),
		zap.String("price", ask.String()),
		zap.String("total", total.String()))

	if e.dryRun {
		e.logger.Info("[dry run] buy order not broadcast",
			zap.String("account", account),
			zap.String("symbol", symbol))
		return true
	}

	receipt, err := e.submitter.SubmitTrade(ctx, account, symbol, amount, ask, entity.DirectionBuy)
	if err != nil {
		e.logger.Error("buy failed",
			zap.String("account", account),
			zap.String("symbol", symbol),
			zap.Error(err))
		return false
	}

	e.logger.Info("buy order placed",
		zap.String("account", account),
		zap.String("symbol", symbol),
		zap.String("receipt", receipt))
	e.settle(ctx)
	return true
}

// Transfer moves amount of symbol from account to toAccount. No settle delay
// is needed: transfers do not touch the order book.
func (e *Executor) Transfer(ctx context.Context, account, toAccount, symbol string, amount decimal.Decimal, memo string) bool {
	e.logger.Info("transferring",
		zap.String("account", account),
		zap.String("to", toAccount),
		zap.String("symbol", symbol),
		zap.String("amount", amount.String()),
		zap.String("memo", memo))

	if e.dryRun {
		e.logger.Info("[dry run] transfer not broadcast",
			zap.String("account", account),
			zap.String("to", toAccount),
			zap.String("symbol", symbol))
		return true
	}

	receipt, err := e.submitter.SubmitTransfer(ctx, account, toAccount, symbol, amount, memo)
	if err != nil {
		e.logger.Error("transfer failed",
			zap.String("account", account),
			zap.String("to", toAccount),
			zap.String("symbol", symbol),
			zap.Error(err))
		return false
	}

	e.logger.Info("transferred",
		zap.String("account", account),
		zap.String("to", toAccount),
		zap.String("symbol", symbol),
		zap.String("receipt", receipt))
	return true
}

// Stake moves amount of symbol from the account's liquid balance into its
// staked balance.
func (e *Executor) Stake(ctx context.Context, account, symbol string, amount decimal.Decimal) bool {
	e.logger.Info("staking",
		zap.String("account", account),
		zap.String("symbol", symbol),
		zap.String("amount", amount.String()))

	if e.dryRun {
		e.logger.Info("[dry run] stake not broadcast",
			zap.String("account", account),
			zap.String("symbol", symbol))
		return true
	}

	receipt, err := e.submitter.SubmitStake(ctx, account, symbol, amount)
	if err != nil {
		e.logger.Error("stake failed",
			zap.String("account", account),
			zap.String("symbol", symbol),
			zap.Error(err))
		return false
	}

	e.logger.Info("staked",
		zap.String("account", account),
		zap.String("symbol", symbol),
		zap.String("receipt", receipt))
	return true
}

// settle blocks for the configured delay. It is a plain pause, not a yield
// point: the run is strictly sequential and the delay keeps balance
// snapshots from going stale between rapid-fire orders.
func (e *Executor) settle(ctx context.Context) {
	if e.settleDelay <= 0 {
		return
	}
	timer := time.NewTimer(e.settleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
