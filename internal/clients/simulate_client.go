package clients

import (
	"context"
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Hattyot/BalanceSnapshotter/internal/domain"
)

// SimulateClient is an in-memory ledger standing in for a chain node.
// Balances can be changed between snapshots, which makes it useful for
// dry runs and tests.
type SimulateClient struct {
	mu       sync.RWMutex
	book     domain.AddressBook
	logger   *zap.Logger
	tokens   map[common.Address]domain.TokenMetadata
	balances map[common.Address]map[common.Address]*big.Int
	failures map[common.Address]map[common.Address]error

	metadataCalls atomic.Int64
	balanceCalls  atomic.Int64
}

// NewSimulateClient creates an empty ledger.
func NewSimulateClient(book domain.AddressBook, logger *zap.Logger) *SimulateClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SimulateClient{
		book:     book,
		logger:   logger,
		tokens:   make(map[common.Address]domain.TokenMetadata),
		balances: make(map[common.Address]map[common.Address]*big.Int),
		failures: make(map[common.Address]map[common.Address]error),
	}
}

// Deploy registers a token contract with its metadata.
func (c *SimulateClient) Deploy(token domain.Token, meta domain.TokenMetadata) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[token.Address] = meta
	if _, ok := c.balances[token.Address]; !ok {
		c.balances[token.Address] = make(map[common.Address]*big.Int)
	}
}

// SetBalance sets the raw balance of account for a deployed token.
func (c *SimulateClient) SetBalance(token domain.Token, account domain.Account, raw *big.Int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	byAccount, ok := c.balances[token.Address]
	if !ok {
		return errors.Wrapf(domain.ErrNoContract, "set balance on %s", token)
	}
	byAccount[account.Address] = new(big.Int).Set(raw)
	return nil
}

// FailBalance makes balance queries for the pair fail with err until cleared with a nil err.
func (c *SimulateClient) FailBalance(token domain.Token, account domain.Account, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.failures[token.Address], account.Address)
		return
	}
	if _, ok := c.failures[token.Address]; !ok {
		c.failures[token.Address] = make(map[common.Address]error)
	}
	c.failures[token.Address][account.Address] = err
}

// MetadataCalls returns how many metadata lookups reached the ledger.
func (c *SimulateClient) MetadataCalls() int64 {
	return c.metadataCalls.Load()
}

// BalanceCalls returns how many balance queries reached the ledger.
func (c *SimulateClient) BalanceCalls() int64 {
	return c.balanceCalls.Load()
}

// BindToken checks the address and that the token was deployed.
func (c *SimulateClient) BindToken(_ context.Context, identifier string) (domain.Token, error) {
	token, err := domain.NewToken(identifier)
	if err != nil {
		return domain.Token{}, &domain.ResolutionError{Identifier: identifier, Err: err}
	}

	c.mu.RLock()
	_, ok := c.tokens[token.Address]
	c.mu.RUnlock()
	if !ok {
		return domain.Token{}, &domain.ResolutionError{Identifier: identifier, Err: domain.ErrNoContract}
	}
	return token, nil
}

// ResolveAccount resolves a literal address or address-book alias.
func (c *SimulateClient) ResolveAccount(_ context.Context, identifier string) (domain.Account, error) {
	return c.book.Resolve(identifier)
}

// BalanceOf returns the ledger balance, zero for unknown holders.
func (c *SimulateClient) BalanceOf(ctx context.Context, token domain.Token, account domain.Account) (*big.Int, error) {
	c.balanceCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if err, ok := c.failures[token.Address][account.Address]; ok {
		return nil, err
	}
	byAccount, ok := c.balances[token.Address]
	if !ok {
		return nil, errors.Wrapf(domain.ErrNoContract, "balanceOf %s", token)
	}
	if v, ok := byAccount[account.Address]; ok {
		return new(big.Int).Set(v), nil
	}
	return new(big.Int), nil
}

// TokenMetadata returns the metadata the token was deployed with.
func (c *SimulateClient) TokenMetadata(_ context.Context, token domain.Token) (domain.TokenMetadata, error) {
	c.metadataCalls.Add(1)

	c.mu.RLock()
	meta, ok := c.tokens[token.Address]
	c.mu.RUnlock()
	if !ok {
		return domain.TokenMetadata{}, &domain.ResolutionError{Identifier: token.String(), Err: domain.ErrNoContract}
	}

	c.logger.Debug("simulated metadata lookup", zap.String("token", token.String()), zap.String("symbol", meta.Symbol))
	return meta, nil
}
