// Package domain defines core data structures used throughout the snapshotter.
package domain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ParseAddress validates a hex address and returns its canonical form.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

// Token tracked ERC-20 contract.
type Token struct {
	// Address contract address, the only identity of a token.
	Address common.Address
}

// NewToken creates a token handle from an address string.
func NewToken(address string) (Token, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return Token{}, err
	}
	return Token{Address: addr}, nil
}

// String returns the checksummed address.
func (t Token) String() string {
	return t.Address.Hex()
}

// TokenMetadata immutable facts about a token contract.
type TokenMetadata struct {
	Name     string `json:"name" yaml:"name"`
	Symbol   string `json:"symbol" yaml:"symbol"`
	Decimals uint8  `json:"decimals" yaml:"decimals"`
}
