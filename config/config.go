// Package config loads accounts, credentials and run parameters from flags,
// YAML and the environment.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// DefaultAccountsFile is tried when no -accounts flag is given.
const DefaultAccountsFile = "accounts.yaml"

// Operation is the batch operation selected on the command line.
type Operation string

const (
	OperationSell     Operation = "sell"
	OperationBuy      Operation = "buy"
	OperationTransfer Operation = "transfer"
	OperationStake    Operation = "stake"
)

// RunConfig holds the parameters of one batch run. It is immutable for the
// duration of the run and passed by value into each component.
type RunConfig struct {
	// MinAmount a balance must strictly exceed this to qualify.
	MinAmount decimal.Decimal
	// MaxAmount per-transaction cap; zero or negative means no cap.
	MaxAmount decimal.Decimal
	// TargetSymbol the settlement token, e.g. SWAP.HIVE.
	TargetSymbol string
	// Whitelist symbols excluded in all-tokens mode, matched case-insensitively.
	Whitelist []string
	// DryRun simulates every operation without broadcasting.
	DryRun bool
	// SettleDelay pause after a live sell or buy; negative selects the default.
	SettleDelay time.Duration
}

// AccountsFile mirrors the accounts YAML document.
type AccountsFile struct {
	Accounts  []string `yaml:"accounts"`
	ActiveKey string   `yaml:"active_key"`
	Whitelist []string `yaml:"whitelist"`
}

// LoadAccounts reads the accounts file at path, falling back to
// accounts.yaml in the working directory when path is empty.
func LoadAccounts(path string) (AccountsFile, error) {
	if path == "" {
		path = DefaultAccountsFile
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return AccountsFile{}, errors.Wrapf(err, "failed to read accounts file %s", path)
	}

	var file AccountsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return AccountsFile{}, errors.Wrapf(err, "failed to parse accounts file %s", path)
	}

	return file, nil
}

// ResolveActiveKey picks the transaction authority key: the -active-key flag
// wins, then the YAML file, then the ACTIVE_WIF environment variable.
func ResolveActiveKey(flagKey, yamlKey string) (string, error) {
	if flagKey != "" {
		return flagKey, nil
	}
	if yamlKey != "" {
		return yamlKey, nil
	}
	if envKey := os.Getenv("ACTIVE_WIF"); envKey != "" {
		return envKey, nil
	}
	return "", errors.New("active key must be provided via -active-key, the accounts file, or the ACTIVE_WIF env variable")
}
