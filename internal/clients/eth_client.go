package clients

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Hattyot/BalanceSnapshotter/internal/domain"
)

// contractCaller is the part of ethclient.Client the reader needs.
type contractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
}

// EthClient reads ERC-20 state from an EVM node over JSON-RPC.
// All calls target the latest block.
type EthClient struct {
	caller contractCaller
	book   domain.AddressBook
	logger *zap.Logger
	close  func()
}

// DialEthClient connects to the node at rpcURL.
func DialEthClient(ctx context.Context, rpcURL string, book domain.AddressBook, logger *zap.Logger) (*EthClient, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", rpcURL)
	}

	c := NewEthClient(client, book, logger)
	c.close = client.Close
	return c, nil
}

// NewEthClient creates a reader on top of an existing caller.
func NewEthClient(caller contractCaller, book domain.AddressBook, logger *zap.Logger) *EthClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EthClient{caller: caller, book: book, logger: logger}
}

// Close releases the RPC connection.
func (c *EthClient) Close() {
	if c.close != nil {
		c.close()
	}
}

// BindToken validates the address and checks that a contract is deployed there.
func (c *EthClient) BindToken(ctx context.Context, identifier string) (domain.Token, error) {
	token, err := domain.NewToken(identifier)
	if err != nil {
		return domain.Token{}, &domain.ResolutionError{Identifier: identifier, Err: err}
	}

	code, err := c.caller.CodeAt(ctx, token.Address, nil)
	if err != nil {
		return domain.Token{}, &domain.ResolutionError{Identifier: identifier, Err: errors.Wrap(err, "get code")}
	}
	if len(code) == 0 {
		return domain.Token{}, &domain.ResolutionError{Identifier: identifier, Err: domain.ErrNoContract}
	}

	c.logger.Debug("token bound", zap.String("token", token.String()))
	return token, nil
}

// ResolveAccount resolves a literal address or address-book alias.
func (c *EthClient) ResolveAccount(_ context.Context, identifier string) (domain.Account, error) {
	return c.book.Resolve(identifier)
}

// BalanceOf calls balanceOf(account) on the token contract.
func (c *EthClient) BalanceOf(ctx context.Context, token domain.Token, account domain.Account) (*big.Int, error) {
	out, err := c.call(ctx, token, "balanceOf", account.Address)
	if err != nil {
		return nil, err
	}

	balance, ok := out.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("balanceOf: unexpected result type %T", out)
	}
	return balance, nil
}

// TokenMetadata fetches name, symbol and decimals of the token.
func (c *EthClient) TokenMetadata(ctx context.Context, token domain.Token) (domain.TokenMetadata, error) {
	var meta domain.TokenMetadata

	name, err := c.call(ctx, token, "name")
	if err != nil {
		return meta, &domain.ResolutionError{Identifier: token.String(), Err: err}
	}
	symbol, err := c.call(ctx, token, "symbol")
	if err != nil {
		return meta, &domain.ResolutionError{Identifier: token.String(), Err: err}
	}
	decimals, err := c.call(ctx, token, "decimals")
	if err != nil {
		return meta, &domain.ResolutionError{Identifier: token.String(), Err: err}
	}

	var ok bool
	if meta.Name, ok = name.(string); !ok {
		return meta, &domain.ResolutionError{Identifier: token.String(), Err: fmt.Errorf("name: unexpected result type %T", name)}
	}
	if meta.Symbol, ok = symbol.(string); !ok {
		return meta, &domain.ResolutionError{Identifier: token.String(), Err: fmt.Errorf("symbol: unexpected result type %T", symbol)}
	}
	if meta.Decimals, ok = decimals.(uint8); !ok {
		return meta, &domain.ResolutionError{Identifier: token.String(), Err: fmt.Errorf("decimals: unexpected result type %T", decimals)}
	}

	c.logger.Debug("token metadata fetched",
		zap.String("token", token.String()),
		zap.String("symbol", meta.Symbol),
		zap.Uint8("decimals", meta.Decimals))
	return meta, nil
}

func (c *EthClient) call(ctx context.Context, token domain.Token, method string, args ...any) (any, error) {
	data, err := erc20ABI.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "pack %s", method)
	}

	to := token.Address
	raw, err := c.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "call %s", method)
	}

	values, err := erc20ABI.Unpack(method, raw)
	if err != nil {
		return nil, errors.Wrapf(err, "unpack %s", method)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%s: expected 1 return value, got %d", method, len(values))
	}
	return values[0], nil
}
