package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	dai   = "0x6B175474E89094C44Da98b954EedeAC495271d0F"
	alice = "0x0000000000000000000000000000000000000c01"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestParse_Flags(t *testing.T) {
	cfg, err := Parse([]string{
		"--rpc", "http://localhost:8545",
		"--tokens", dai + ", " + dai,
		"--accounts", alice,
		"--timeout", "5s",
		"--max-concurrency", "8",
		"--dedup",
		"--name", "before-upgrade",
	})
	require.NoError(t, err)

	assert.Equal(t, PlatformEthereum, cfg.Platform)
	assert.Equal(t, []string{dai, dai}, cfg.Tokens)
	assert.Equal(t, []string{alice}, cfg.Accounts)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 8, cfg.MaxConcurrency)
	assert.True(t, cfg.Dedup)
	assert.True(t, cfg.FailFast)
	assert.Equal(t, time.Minute, cfg.WatchInterval)
	assert.Equal(t, "before-upgrade", cfg.SnapshotName)
}

func TestParse_FlagValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing rpc", []string{"--tokens", dai, "--accounts", alice}, "rpc_url"},
		{"no tokens", []string{"--platform", "simulate", "--accounts", alice}, "token"},
		{"no accounts", []string{"--platform", "simulate", "--tokens", dai}, "account"},
		{"bad token", []string{"--platform", "simulate", "--tokens", "0x12", "--accounts", alice}, "tokens"},
		{"bad platform", []string{"--platform", "solana", "--tokens", dai, "--accounts", alice}, "unsupported platform"},
		{"negative retries", []string{"--platform", "simulate", "--tokens", dai, "--accounts", alice, "--retries", "-1"}, "snapshot_retries"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_Yaml(t *testing.T) {
	path := writeConfig(t, `
platform: simulate
tokens:
  - `+dai+`
accounts:
  - alice
  - `+alice+`
address_book:
  alice: `+alice+`
timeout: 10s
max_concurrency: "4"
fail_fast: false
watch_interval: 30s
snapshot_retries: "2"
journal_dir: ./wal/test
simulate:
  - address: `+dai+`
    name: Dai Stablecoin
    symbol: DAI
    decimals: 18
    balances:
      alice: "1.5"
`)

	cfg, err := Parse([]string{"--config", path, "--name", "nightly"})
	require.NoError(t, err)

	assert.Equal(t, PlatformSimulate, cfg.Platform)
	assert.Equal(t, "nightly", cfg.SnapshotName)
	assert.Equal(t, []string{"alice", alice}, cfg.Accounts)
	assert.Equal(t, alice, cfg.AddressBook["alice"])
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 4, cfg.MaxConcurrency)
	assert.False(t, cfg.FailFast)
	assert.Equal(t, 30*time.Second, cfg.WatchInterval)
	assert.Equal(t, 2, cfg.SnapshotRetries)
	assert.Equal(t, "./wal/test", cfg.JournalDir)
	assert.Equal(t, "info", cfg.LogLevel)

	require.Len(t, cfg.Simulate, 1)
	sim := cfg.Simulate[0]
	assert.Equal(t, "DAI", sim.Metadata.Symbol)
	assert.Equal(t, "1500000000000000000", sim.Balances["alice"].String())
}

func TestParse_YamlErrors(t *testing.T) {
	t.Run("bad max_concurrency", func(t *testing.T) {
		path := writeConfig(t, "platform: simulate\ntokens: ["+dai+"]\naccounts: ["+alice+"]\nmax_concurrency: lots\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_concurrency")
	})

	t.Run("bad seed balance", func(t *testing.T) {
		path := writeConfig(t, "platform: simulate\ntokens: ["+dai+"]\naccounts: ["+alice+"]\nsimulate:\n  - address: "+dai+"\n    decimals: 2\n    balances:\n      x: \"0.001\"\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulate.balances")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestToRaw(t *testing.T) {
	raw, err := ToRaw("1,000", 0)
	assert.Error(t, err)
	assert.Nil(t, raw)

	raw, err = ToRaw("12.34", 6)
	require.NoError(t, err)
	assert.Equal(t, "12340000", raw.String())

	_, err = ToRaw("-1", 6)
	assert.Error(t, err)

	_, err = ToRaw("0.1234567", 6)
	assert.Error(t, err)
}
