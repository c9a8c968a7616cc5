// Package batch iterates accounts and orchestrates filtering, pricing and
// execution per account, isolating every per-account failure so one bad
// account never aborts the run.
package batch

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/thecrazygm/automarket/config"
	"github.com/thecrazygm/automarket/internal/entity"
)

// Connection is the read side of the authority session shared by all
// per-account operations.
type Connection interface {
	// EnsureAccount verifies the account exists and a per-account view can
	// be constructed under the authority's signing key.
	EnsureAccount(ctx context.Context, account string) error
	// Balances returns a fresh token balance snapshot for the account.
	Balances(ctx context.Context, account string) ([]entity.TokenBalance, error)
}

// Quoter resolves best prices for a token. A zero side means no market.
type Quoter interface {
	BestPrices(ctx context.Context, symbol string) entity.MarketQuote
}

// Selector narrows a balance snapshot to trade intents.
type Selector interface {
	SelectTargets(account string, balances []entity.TokenBalance, cfg config.RunConfig, singleSymbol string, direction entity.Direction) []entity.TradeIntent
}

// Trader executes single operations and reports success as a bool.
type Trader interface {
	Sell(ctx context.Context, account, symbol string, amount decimal.Decimal, price entity.BidPrice) bool
	Buy(ctx context.Context, account, symbol string, amount decimal.Decimal, price entity.AskPrice) bool
	Transfer(ctx context.Context, account, toAccount, symbol string, amount decimal.Decimal, memo string) bool
	Stake(ctx context.Context, account, symbol string, amount decimal.Decimal) bool
}

// Request describes one batch run.
type Request struct {
	Op config.Operation
	// Accounts to process. The first entry is the authority account whose
	// key signs every transaction; it stays fixed for the whole run.
	Accounts []string
	// Token single-symbol mode target; ignored when AllTokens is set.
	// For buy mode this is the token being bought.
	Token     string
	AllTokens bool
	// To destination account for transfer mode.
	To   string
	Memo string
}

// Runner processes accounts strictly sequentially: the authority key's
// transactions need ordered nonces and settle delays keep the order book
// state fresh between operations.
type Runner struct {
	conn     Connection
	quoter   Quoter
	selector Selector
	trader   Trader
	cfg      config.RunConfig
	logger   *zap.Logger
}

// NewRunner creates a Runner.
func NewRunner(conn Connection, quoter Quoter, selector Selector, trader Trader, cfg config.RunConfig, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		conn:     conn,
		quoter:   quoter,
		selector: selector,
		trader:   trader,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run processes every account in the request and returns the accumulated
// statistics. Per-account failures are logged and skipped; Run itself fails
// only on an empty account list.
func (r *Runner) Run(ctx context.Context, req Request) (entity.BatchResult, error) {
	if len(req.Accounts) == 0 {
		return entity.BatchResult{}, errors.New("no accounts to process")
	}

	authority := req.Accounts[0]
	r.logger.Info("starting batch run",
		zap.String("op", string(req.Op)),
		zap.Int("accounts", len(req.Accounts)),
		zap.String("authority", authority),
		zap.Bool("dry_run", r.cfg.DryRun))

	result := entity.BatchResult{TotalAccountCount: len(req.Accounts)}
	for _, account := range req.Accounts {
		successes := r.processAccount(ctx, account, req)
		result.SuccessCount += successes
		if successes > 0 {
			result.ProcessedAccountCount++
		}
	}

	r.logger.Info("batch run finished",
		zap.Int("operations", result.SuccessCount),
		zap.Int("accounts_processed", result.ProcessedAccountCount),
		zap.Int("accounts_total", result.TotalAccountCount))
	return result, nil
}

// processAccount runs one account through the session, balance, filter,
// price, execute pipeline and returns how many operations succeeded. Any
// panic is contained here: the account is treated as skipped.
func (r *Runner) processAccount(ctx context.Context, account string, req Request) (successes int) {
	defer func() {
		if rec := recover(); rec != nil {
			successes = 0
			r.logger.Error("unhandled failure while processing account, skipping",
				zap.String("account", account),
				zap.Any("cause", rec))
			r.logger.Debug("account failure stack",
				zap.String("account", account),
				zap.Stack("stack"))
		}
	}()

	r.logger.Debug("processing account", zap.String("account", account))

	if err := r.conn.EnsureAccount(ctx, account); err != nil {
		r.logger.Error("failed to open account view, skipping",
			zap.String("account", account),
			zap.Error(err))
		return 0
	}

	balances, err := r.conn.Balances(ctx, account)
	if err != nil {
		r.logger.Error("failed to fetch balances, skipping account",
			zap.String("account", account),
			zap.Error(err))
		return 0
	}
	if len(balances) == 0 {
		r.logger.Info("account holds no tokens, skipping", zap.String("account", account))
		return 0
	}
	r.logger.Debug("fetched balances",
		zap.String("account", account),
		zap.Int("tokens", len(balances)))

	if req.Op == config.OperationBuy {
		return r.buyForAccount(ctx, account, req, balances)
	}

	singleSymbol := ""
	if !req.AllTokens {
		singleSymbol = req.Token
	}
	direction := entity.DirectionSell
	intents := r.selector.SelectTargets(account, balances, r.cfg, singleSymbol, direction)

	for _, intent := range intents {
		if r.executeIntent(ctx, intent, req) {
			successes++
		}
	}
	return successes
}

// buyForAccount spends the account's settlement-token balance on the target
// token at the lowest ask. The bought amount is balance divided by ask.
func (r *Runner) buyForAccount(ctx context.Context, account string, req Request, balances []entity.TokenBalance) int {
	intents := r.selector.SelectTargets(account, balances, r.cfg, r.cfg.TargetSymbol, entity.DirectionBuy)
	if len(intents) == 0 {
		return 0
	}
	budget := intents[0].Amount

	quote := r.quoter.BestPrices(ctx, req.Token)
	ask, ok := quote.Ask()
	if !ok {
		r.logger.Warn("no sellers for token, skipping",
			zap.String("account", account),
			zap.String("symbol", req.Token))
		return 0
	}

	amount := budget.Div(ask.Decimal())
	if !r.trader.Buy(ctx, account, req.Token, amount, ask) {
		return 0
	}
	return 1
}

func (r *Runner) executeIntent(ctx context.Context, intent entity.TradeIntent, req Request) bool {
	switch req.Op {
	case config.OperationSell:
		quote := r.quoter.BestPrices(ctx, intent.Symbol)
		bid, ok := quote.Bid()
		if !ok {
			r.logger.Warn("no buyers for token, skipping",
				zap.String("account", intent.Account),
				zap.String("symbol", intent.Symbol))
			return false
		}
		intent.Price = bid.Decimal()
		return r.trader.Sell(ctx, intent.Account, intent.Symbol, intent.Amount, bid)
	case config.OperationTransfer:
		return r.trader.Transfer(ctx, intent.Account, req.To, intent.Symbol, intent.Amount, req.Memo)
	case config.OperationStake:
		return r.trader.Stake(ctx, intent.Account, intent.Symbol, intent.Amount)
	default:
		r.logger.Error("unsupported operation", zap.String("op", string(req.Op)))
		return false
	}
}
