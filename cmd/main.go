// Command automarket sells, buys, stakes or transfers Hive-Engine tokens for
// a list of accounts using the authority (active key) of a single main
// account: the first account in the list.
//
// Usage:
//
//	automarket -op sell -token LEO
//	automarket -op sell -all-tokens -dry-run
//	automarket -op transfer -all-tokens -to savings-account
//
// Accounts, an optional active key and a whitelist come from accounts.yaml
// (or -accounts). The active key can also be set via the ACTIVE_WIF
// environment variable, loaded from .env when present.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/thecrazygm/automarket/config"
	"github.com/thecrazygm/automarket/internal/clients"
	"github.com/thecrazygm/automarket/internal/services/batch"
	"github.com/thecrazygm/automarket/internal/services/executor"
	"github.com/thecrazygm/automarket/internal/services/filter"
	"github.com/thecrazygm/automarket/internal/services/orderbook"
)

var (
	warn    = lipgloss.AdaptiveColor{Light: "#D08700", Dark: "#F5C542"}
	special = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	bannerStyle = lipgloss.NewStyle().
			Foreground(warn).
			Bold(true).
			MarginBottom(1)

	summaryStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1)
)

func main() {
	// missing .env is fine, the key may come from flags or YAML
	_ = godotenv.Load()

	flags, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := newLogger(flags.Debug)
	defer logger.Sync()

	accountsFile, err := config.LoadAccounts(flags.AccountsPath)
	if err != nil {
		logger.Fatal("failed to load accounts file", zap.Error(err))
	}
	if len(accountsFile.Accounts) == 0 {
		logger.Fatal("no accounts found in configuration")
	}

	activeKey, err := config.ResolveActiveKey(flags.ActiveKey, accountsFile.ActiveKey)
	if err != nil {
		logger.Fatal("no authority key resolvable", zap.Error(err))
	}

	if err := validateMode(&flags); err != nil {
		logger.Fatal("invalid flag combination", zap.Error(err))
	}

	runCfg := flags.Run
	runCfg.Whitelist = accountsFile.Whitelist

	if runCfg.DryRun {
		fmt.Println(bannerStyle.Render("DRY RUN: no transactions will be broadcast"))
	}

	ctx := context.Background()

	client, err := clients.NewHiveClient(ctx, flags.Node, flags.EngineNode, activeKey, logger)
	if err != nil {
		logger.Fatal("failed to establish authority connection", zap.Error(err))
	}

	runner := batch.NewRunner(
		client,
		orderbook.NewAggregator(client, logger),
		filter.NewFilter(logger),
		executor.NewExecutor(client, runCfg.DryRun, runCfg.SettleDelay, logger),
		runCfg,
		logger,
	)

	result, err := runner.Run(ctx, batch.Request{
		Op:        flags.Op,
		Accounts:  accountsFile.Accounts,
		Token:     flags.Token,
		AllTokens: flags.AllTokens,
		To:        flags.To,
		Memo:      flags.Memo,
	})
	if err != nil {
		logger.Fatal("batch run failed", zap.Error(err))
	}

	// individual account failures are reported via logs, not exit status
	fmt.Println(summaryStyle.Render("Done: " + result.String()))
}

// validateMode checks the operation's flag requirements and interactively
// asks for a transfer destination when none was given.
func validateMode(flags *config.Flags) error {
	switch flags.Op {
	case config.OperationBuy:
		if flags.Token == "" {
			return fmt.Errorf("buy mode requires -token")
		}
	case config.OperationTransfer:
		if flags.Token == "" && !flags.AllTokens {
			return fmt.Errorf("either -token or -all-tokens must be specified")
		}
		if flags.To == "" {
			prompt := huh.NewInput().
				Title("Destination account").
				Description("Account the tokens will be transferred to").
				Value(&flags.To)
			if err := huh.NewForm(huh.NewGroup(prompt)).Run(); err != nil {
				return err
			}
			if flags.To == "" {
				return fmt.Errorf("transfer mode requires a destination account")
			}
		}
	default:
		if flags.Token == "" && !flags.AllTokens {
			return fmt.Errorf("either -token or -all-tokens must be specified")
		}
	}
	return nil
}

func newLogger(debug bool) *zap.Logger {
	if debug {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, _ := zap.NewProduction()
	return logger
}
