package config

import (
	"flag"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/Hattyot/BalanceSnapshotter/internal/domain"
)

const (
	PlatformEthereum = "ethereum"
	PlatformSimulate = "simulate"

	defaultTimeout       = 30 * time.Second
	defaultWatchInterval = time.Minute
	defaultLogLevel      = "info"
)

type Config struct {
	Platform        string
	RPCURL          string
	Tokens          []string
	Accounts        []string
	AddressBook     domain.AddressBook
	Timeout         time.Duration
	MaxConcurrency  int
	FailFast        bool
	Dedup           bool
	WatchInterval   time.Duration
	SnapshotRetries int
	JournalDir      string
	LogLevel        string
	// SnapshotName labels the snapshot taken by the snap command. Flag only.
	SnapshotName string
	// Simulate seeds the in-memory ledger used by the simulate platform.
	Simulate []SimulatedToken
}

// SimulatedToken token deployed on the simulated ledger with its raw balances.
type SimulatedToken struct {
	Token    domain.Token
	Metadata domain.TokenMetadata
	Balances map[string]*big.Int
}

type ConfigTmp struct {
	Platform           string              `yaml:"platform"`
	RPCURL             string              `yaml:"rpc_url,omitempty"`
	Tokens             []string            `yaml:"tokens"`
	Accounts           []string            `yaml:"accounts"`
	AddressBook        map[string]string   `yaml:"address_book,omitempty"`
	Timeout            time.Duration       `yaml:"timeout,omitempty"`
	MaxConcurrencyStr  string              `yaml:"max_concurrency,omitempty"`
	FailFast           *bool               `yaml:"fail_fast,omitempty"`
	Dedup              bool                `yaml:"dedup,omitempty"`
	WatchInterval      time.Duration       `yaml:"watch_interval,omitempty"`
	SnapshotRetriesStr string              `yaml:"snapshot_retries,omitempty"`
	JournalDir         string              `yaml:"journal_dir,omitempty"`
	LogLevel           string              `yaml:"log_level,omitempty"`
	Simulate           []SimulatedTokenTmp `yaml:"simulate,omitempty"`
}

type SimulatedTokenTmp struct {
	Address  string `yaml:"address"`
	Name     string `yaml:"name"`
	Symbol   string `yaml:"symbol"`
	Decimals uint8  `yaml:"decimals"`
	// Balances account (address or alias) to amount in token units, e.g. "12.5".
	Balances map[string]string `yaml:"balances,omitempty"`
}

// Get reads configuration from the process arguments.
func Get() (Config, error) {
	return Parse(os.Args[1:])
}

// Parse reads configuration from args: a yaml file when --config is set, CLI flags otherwise.
func Parse(args []string) (Config, error) {
	fs := flag.NewFlagSet("balancesnap", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to yaml config")
	platform := fs.String("platform", PlatformEthereum, "chain data source: ethereum or simulate")
	rpc := fs.String("rpc", "", "JSON-RPC endpoint of an EVM node")
	tokens := fs.String("tokens", "", "comma separated token contract addresses")
	accounts := fs.String("accounts", "", "comma separated account addresses")
	timeout := fs.Duration("timeout", defaultTimeout, "max duration of one snapshot, 0 disables")
	maxConcurrency := fs.Int("max-concurrency", 0, "max in-flight balance queries, 0 means unlimited")
	failFast := fs.Bool("fail-fast", true, "cancel remaining queries once one fails")
	dedup := fs.Bool("dedup", false, "ignore duplicate tokens and accounts")
	interval := fs.Duration("interval", defaultWatchInterval, "snapshot interval in watch mode")
	retries := fs.Int("retries", 0, "retries of a failed snapshot in watch mode")
	journal := fs.String("journal", "", "directory of the snapshot journal, empty disables")
	logLevel := fs.String("log-level", defaultLogLevel, "log level: debug, info, warn, error")
	name := fs.String("name", "", "label of the snapshot taken by snap")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if *configPath != "" {
		cfg, err := getYaml(*configPath)
		if err != nil {
			return Config{}, err
		}
		cfg.SnapshotName = *name
		return cfg, nil
	}

	cfg := Config{
		Platform:        *platform,
		RPCURL:          *rpc,
		Tokens:          splitList(*tokens),
		Accounts:        splitList(*accounts),
		Timeout:         *timeout,
		MaxConcurrency:  *maxConcurrency,
		FailFast:        *failFast,
		Dedup:           *dedup,
		WatchInterval:   *interval,
		SnapshotRetries: *retries,
		JournalDir:      *journal,
		LogLevel:        *logLevel,
		SnapshotName:    *name,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads a yaml config file.
func Load(path string) (Config, error) {
	return getYaml(path)
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var c ConfigTmp
	if err := yaml.Unmarshal(f, &c); err != nil {
		return Config{}, fmt.Errorf("incorrect yaml config %s: %w", path, err)
	}

	return c.toConfig()
}

func (c ConfigTmp) toConfig() (Config, error) {
	cfg := Config{
		Platform:      c.Platform,
		RPCURL:        c.RPCURL,
		Tokens:        c.Tokens,
		Accounts:      c.Accounts,
		AddressBook:   domain.AddressBook(c.AddressBook),
		Timeout:       c.Timeout,
		FailFast:      true,
		Dedup:         c.Dedup,
		WatchInterval: c.WatchInterval,
		JournalDir:    c.JournalDir,
		LogLevel:      c.LogLevel,
	}

	if cfg.Platform == "" {
		cfg.Platform = PlatformEthereum
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.WatchInterval == 0 {
		cfg.WatchInterval = defaultWatchInterval
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	if c.FailFast != nil {
		cfg.FailFast = *c.FailFast
	}

	if c.MaxConcurrencyStr != "" {
		n, err := strconv.Atoi(c.MaxConcurrencyStr)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'max_concurrency' param in yaml config (must be an integer), error: %w", err)
		}
		cfg.MaxConcurrency = n
	}
	if c.SnapshotRetriesStr != "" {
		n, err := strconv.Atoi(c.SnapshotRetriesStr)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'snapshot_retries' param in yaml config (must be an integer), error: %w", err)
		}
		cfg.SnapshotRetries = n
	}

	for _, st := range c.Simulate {
		token, err := domain.NewToken(st.Address)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'simulate.address' param in yaml config: %w", err)
		}
		sim := SimulatedToken{
			Token:    token,
			Metadata: domain.TokenMetadata{Name: st.Name, Symbol: st.Symbol, Decimals: st.Decimals},
			Balances: make(map[string]*big.Int, len(st.Balances)),
		}
		for account, amount := range st.Balances {
			raw, err := ToRaw(amount, st.Decimals)
			if err != nil {
				return Config{}, fmt.Errorf("incorrect 'simulate.balances' param for %s in yaml config: %w", account, err)
			}
			sim.Balances[account] = raw
		}
		cfg.Simulate = append(cfg.Simulate, sim)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the config can drive a snapshotter.
func (c Config) Validate() error {
	switch c.Platform {
	case PlatformEthereum:
		if c.RPCURL == "" {
			return fmt.Errorf("'rpc_url' is required for platform %s", c.Platform)
		}
	case PlatformSimulate:
	default:
		return fmt.Errorf("unsupported platform %q", c.Platform)
	}

	if len(c.Tokens) == 0 {
		return fmt.Errorf("at least one token is required")
	}
	if len(c.Accounts) == 0 {
		return fmt.Errorf("at least one account is required")
	}
	for _, t := range c.Tokens {
		if _, err := domain.ParseAddress(t); err != nil {
			return fmt.Errorf("incorrect 'tokens' param: %w", err)
		}
	}
	if c.Timeout < 0 {
		return fmt.Errorf("'timeout' must not be negative, got %s", c.Timeout)
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("'max_concurrency' must not be negative, got %d", c.MaxConcurrency)
	}
	if c.SnapshotRetries < 0 {
		return fmt.Errorf("'snapshot_retries' must not be negative, got %d", c.SnapshotRetries)
	}
	if c.WatchInterval <= 0 {
		return fmt.Errorf("'watch_interval' must be positive, got %s", c.WatchInterval)
	}
	return nil
}

// ToRaw converts an amount in token units to a raw integer balance.
func ToRaw(amount string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("negative amount %q", amount)
	}

	shifted := d.Shift(int32(decimals))
	if !shifted.Equal(shifted.Truncate(0)) {
		return nil, fmt.Errorf("amount %q has more than %d decimals", amount, decimals)
	}
	return shifted.BigInt(), nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
