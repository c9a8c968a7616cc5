package config

import (
	"flag"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Flags is the parsed command line.
type Flags struct {
	Op           Operation
	AccountsPath string
	ActiveKey    string
	Token        string
	AllTokens    bool
	To           string
	Memo         string
	Debug        bool
	Node         string
	EngineNode   string
	Run          RunConfig
}

// ParseFlags reads the command line into a Flags value. Flag combinations
// are validated later, once the accounts file is loaded.
func ParseFlags() (Flags, error) {
	op := flag.String("op", "sell", "operation: sell, buy, stake or transfer")
	accounts := flag.String("accounts", "", "path to YAML file with accounts list, optional active key and whitelist")
	activeKey := flag.String("active-key", "", "active key for transaction authority (overrides YAML and environment)")
	token := flag.String("token", "", "token symbol to operate on, example: LEO")
	allTokens := flag.Bool("all-tokens", false, "operate on all tokens except whitelisted ones")
	minAmount := flag.String("min-amount", "0.00001", "minimum token amount to trigger an operation")
	maxAmount := flag.String("max-amount", "", "maximum token amount per transaction (default: no limit)")
	target := flag.String("target", "SWAP.HIVE", "settlement token to trade against")
	to := flag.String("to", "", "destination account for transfer mode")
	memo := flag.String("memo", "Automatic transfer", "memo for transfer mode")
	dryRun := flag.Bool("dry-run", false, "simulate operations without broadcasting")
	settleDelay := flag.Duration("settle-delay", -1, "pause after each live sell or buy (default 2s)")
	debug := flag.Bool("debug", false, "enable debug logging")
	node := flag.String("node", "https://api.hive.blog", "Hive API node")
	engineNode := flag.String("engine-node", "https://api.hive-engine.com/rpc/contracts", "Hive-Engine contracts API node")

	flag.Parse()

	min, err := decimal.NewFromString(*minAmount)
	if err != nil {
		return Flags{}, errors.Wrapf(err, "invalid -min-amount %q", *minAmount)
	}

	max := decimal.Zero
	if *maxAmount != "" {
		max, err = decimal.NewFromString(*maxAmount)
		if err != nil {
			return Flags{}, errors.Wrapf(err, "invalid -max-amount %q", *maxAmount)
		}
		if max.LessThanOrEqual(decimal.Zero) {
			return Flags{}, errors.Errorf("-max-amount must be positive, got %s", max.String())
		}
	}

	switch Operation(*op) {
	case OperationSell, OperationBuy, OperationTransfer, OperationStake:
	default:
		return Flags{}, errors.Errorf("unknown -op %q", *op)
	}

	return Flags{
		Op:           Operation(*op),
		AccountsPath: *accounts,
		ActiveKey:    *activeKey,
		Token:        *token,
		AllTokens:    *allTokens,
		To:           *to,
		Memo:         *memo,
		Debug:        *debug,
		Node:         *node,
		EngineNode:   *engineNode,
		Run: RunConfig{
			MinAmount:    min,
			MaxAmount:    max,
			TargetSymbol: *target,
			DryRun:       *dryRun,
			SettleDelay:  *settleDelay,
		},
	}, nil
}
