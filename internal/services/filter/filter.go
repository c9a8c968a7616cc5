// Package filter selects which token balances of an account qualify for an
// operation under thresholds, whitelist and a per-transaction cap.
package filter

import (
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/thecrazygm/automarket/config"
	"github.com/thecrazygm/automarket/internal/entity"
)

// Filter narrows an account balance snapshot down to trade intents. Prices
// are left unresolved; amounts are final.
type Filter struct {
	logger *zap.Logger
}

// NewFilter creates a Filter.
func NewFilter(logger *zap.Logger) *Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Filter{logger: logger}
}

// SelectTargets picks qualifying balances for the given account.
//
// When singleSymbol is non-empty only the balance matching it
// (case-insensitive) is considered, and only if its amount is strictly above
// cfg.MinAmount. Otherwise every balance qualifies whose symbol is neither
// the settlement symbol nor whitelisted (both case-insensitive) and whose
// amount is strictly above cfg.MinAmount.
//
// Candidate order is the order balances were returned by the upstream query.
func (f *Filter) SelectTargets(account string, balances []entity.TokenBalance, cfg config.RunConfig, singleSymbol string, direction entity.Direction) []entity.TradeIntent {
	var candidates []entity.TokenBalance

	if singleSymbol != "" {
		balance, ok := findSymbol(balances, singleSymbol)
		if !ok {
			f.logger.Info("no such token on account",
				zap.String("account", account),
				zap.String("symbol", singleSymbol))
			return nil
		}
		if balance.Amount.LessThanOrEqual(cfg.MinAmount) {
			f.logger.Info("balance below minimum, nothing to do",
				zap.String("account", account),
				zap.String("symbol", balance.Symbol),
				zap.String("amount", balance.Amount.String()),
				zap.String("min_amount", cfg.MinAmount.String()))
			return nil
		}
		candidates = []entity.TokenBalance{balance}
	} else {
		for _, balance := range balances {
			if strings.EqualFold(balance.Symbol, cfg.TargetSymbol) {
				continue
			}
			if whitelisted(cfg.Whitelist, balance.Symbol) {
				continue
			}
			if balance.Amount.LessThanOrEqual(cfg.MinAmount) {
				continue
			}
			candidates = append(candidates, balance)
		}
		f.logger.Debug("selected candidate tokens",
			zap.String("account", account),
			zap.Int("count", len(candidates)))
	}

	intents := make([]entity.TradeIntent, 0, len(candidates))
	for _, balance := range candidates {
		amount := balance.Amount
		if cfg.MaxAmount.GreaterThan(decimal.Zero) && amount.GreaterThan(cfg.MaxAmount) {
			f.logger.Info("limiting amount to per-transaction cap",
				zap.String("account", account),
				zap.String("symbol", balance.Symbol),
				zap.String("amount", amount.String()),
				zap.String("max_amount", cfg.MaxAmount.String()))
			amount = cfg.MaxAmount
		}
		intents = append(intents, entity.TradeIntent{
			Account:   account,
			Symbol:    balance.Symbol,
			Amount:    amount,
			Direction: direction,
		})
	}

	return intents
}

func findSymbol(balances []entity.TokenBalance, symbol string) (entity.TokenBalance, bool) {
	for _, balance := range balances {
		if strings.EqualFold(balance.Symbol, symbol) {
			return balance, true
		}
	}
	return entity.TokenBalance{}, false
}

func whitelisted(whitelist []string, symbol string) bool {
	for _, entry := range whitelist {
		if strings.EqualFold(entry, symbol) {
			return true
		}
	}
	return false
}
