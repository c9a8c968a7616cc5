package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAccountsFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "accounts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadAccounts(t *testing.T) {
	path := writeAccountsFile(t, `
accounts:
  - mainaccount
  - alt-one
  - alt-two
active_key: 5JXdjdpPhVLEEAqkKVpo9yjQJBSFUq2r4hdTqhqE1gZj5wtvuPu
whitelist:
  - BEE
  - ARCHON
`)

	file, err := LoadAccounts(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"mainaccount", "alt-one", "alt-two"}, file.Accounts)
	assert.Equal(t, "5JXdjdpPhVLEEAqkKVpo9yjQJBSFUq2r4hdTqhqE1gZj5wtvuPu", file.ActiveKey)
	assert.Equal(t, []string{"BEE", "ARCHON"}, file.Whitelist)
}

func TestLoadAccountsOptionalFields(t *testing.T) {
	path := writeAccountsFile(t, "accounts:\n  - solo\n")

	file, err := LoadAccounts(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"solo"}, file.Accounts)
	assert.Empty(t, file.ActiveKey)
	assert.Empty(t, file.Whitelist)
}

func TestLoadAccountsMissingFile(t *testing.T) {
	_, err := LoadAccounts(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read accounts file")
}

func TestLoadAccountsMalformedYAML(t *testing.T) {
	path := writeAccountsFile(t, "accounts: [unterminated\n")

	_, err := LoadAccounts(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse accounts file")
}

func TestResolveActiveKeyPrecedence(t *testing.T) {
	t.Setenv("ACTIVE_WIF", "env-key")

	key, err := ResolveActiveKey("flag-key", "yaml-key")
	require.NoError(t, err)
	assert.Equal(t, "flag-key", key)

	key, err = ResolveActiveKey("", "yaml-key")
	require.NoError(t, err)
	assert.Equal(t, "yaml-key", key)

	key, err = ResolveActiveKey("", "")
	require.NoError(t, err)
	assert.Equal(t, "env-key", key)
}

func TestResolveActiveKeyMissingEverywhere(t *testing.T) {
	t.Setenv("ACTIVE_WIF", "")

	_, err := ResolveActiveKey("", "")
	assert.Error(t, err)
}
